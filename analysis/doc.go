// Package analysis runs the full meta-analysis: for every class of a
// dataset it executes the spectral clustering pipeline with a configurable
// preprocessing variant, sweeps the clustering parameters in a broadcast
// fan-out and writes eigenvalues, eigenvectors, cluster labels and 2-d
// layouts into a Sink.
//
// The package faces storage only through the Loader and Sink interfaces;
// CSVLoader and MemorySink are the in-tree reference implementations.
// Configuration arrives as YAML (see Config), progress is logged with
// zerolog and every run is tagged with a UUID.
package analysis
