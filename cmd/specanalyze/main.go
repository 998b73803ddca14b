// Command specanalyze runs the spectral meta-analysis over a CSV dataset
// and prints a summary of the produced result groups.
//
// Usage:
//
//	specanalyze run --input data.csv [--config analysis.yaml] [--verbose]
//
// The CSV layout is one sample per row: column 0 the integer class label,
// the remaining columns the flat feature vector.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/spectral/analysis"
)

var (
	configPath string
	inputPath  string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "specanalyze",
		Short:         "Spectral analysis of model attributions",
		Long:          "specanalyze clusters per-class attribution data with spectral embeddings.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCmd())

	return root
}

func newRunCmd() *cobra.Command {
	run := &cobra.Command{
		Use:   "run",
		Short: "Run the meta-analysis over a CSV dataset",
		RunE:  runAnalysis,
	}
	run.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults apply when omitted)")
	run.Flags().StringVarP(&inputPath, "input", "i", "", "input CSV: class label column + feature columns")
	run.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	_ = run.MarkFlagRequired("input")

	return run
}

func runAnalysis(cmd *cobra.Command, _ []string) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
	if verbose {
		log = log.Level(zerolog.DebugLevel)
	}

	cfg := analysis.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = analysis.LoadConfig(configPath); err != nil {
			return err
		}
	}

	loader, err := analysis.NewCSVLoader(inputPath)
	if err != nil {
		return err
	}
	sink := analysis.NewMemorySink()
	runner, err := analysis.NewRunner(cfg, loader, sink, log)
	if err != nil {
		return err
	}
	if err = runner.Run(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), sink.Summary())

	return nil
}
