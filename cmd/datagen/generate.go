package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/driver"
)

// GenerateOptions represents the options for a generation run.
type GenerateOptions struct {
	Input    string
	Output   string
	NumRows  int
	Seed     uint64
	Progress bool
}

// newGenerateCommand creates the root command, which generates rows.
func newGenerateCommand(global *GlobalOptions) *cobra.Command {
	options := &GenerateOptions{
		NumRows: driver.DefaultNumRows,
	}

	cmd := &cobra.Command{
		Use:   "datagen --input SCHEMA --output FILE [--num_rows N]",
		Short: "datagen writes synthetic rows for a flat schema",
		Long: `datagen reads a schema file with one NAME:TYPE pair per line and writes
random rows as line-delimited JSON, one single-element array per line.

Supported types: VARCHAR, VARIANT, BOOLEAN, FLOAT, ARRAY, TIMESTAMP_NTZ.
Use --output - to write to standard output.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, global, options)
		},
	}

	cmd.Flags().StringVar(&options.Input, "input", "", `The input schema file name (each line is of the format "NAME:TYPE")`)
	cmd.Flags().StringVar(&options.Output, "output", "", "The output file name")
	cmd.Flags().IntVar(&options.NumRows, "num_rows", options.NumRows, "Number of rows to generate")
	cmd.Flags().Uint64Var(&options.Seed, "seed", 0, "Random seed; 0 picks one from the clock")
	cmd.Flags().BoolVar(&options.Progress, "progress", false, "Show a progress spinner on stderr")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runGenerate(cmd *cobra.Command, global *GlobalOptions, options *GenerateOptions) error {
	cfg, log, err := setup(global)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("seed") {
		cfg.Generation.Seed = options.Seed
	}
	params, err := cfg.Generation.Params()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	d := driver.New(params, log)
	if options.Progress {
		stop := attachSpinner(cmd, d)
		defer stop()
	}

	res, err := d.Run(ctx, driver.Options{
		Input:   options.Input,
		Output:  options.Output,
		NumRows: options.NumRows,
	})
	if err != nil {
		if ctx.Err() == context.Canceled {
			log.Warn("Generation interrupted", zap.Int64("rows_written", res.Rows))
		}
		return err
	}

	log.Info("Generation complete",
		zap.Int64("rows", res.Rows),
		zap.Int("fields", res.Fields),
		zap.Duration("duration", res.Duration),
	)
	return nil
}

// attachSpinner reports row progress on stderr and returns a function that stops it.
func attachSpinner(cmd *cobra.Command, d *driver.Driver) func() {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = " generating rows"
	s.Start()

	d.Progress = func(done, total int) {
		if done%1000 != 0 && done != total {
			return
		}
		s.Lock()
		s.Suffix = fmt.Sprintf(" %d/%d rows", done, total)
		s.Unlock()
	}

	return s.Stop
}
