package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/generator"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/schema"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/verify"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/report"
)

// CheckOptions represents the options for the check command.
type CheckOptions struct {
	Input         string
	Data          string
	NumRows       int
	MaxViolations int
	OutputFormat  string
	ReportFile    string
}

// newCheckCommand creates a new check command.
func newCheckCommand(global *GlobalOptions) *cobra.Command {
	options := &CheckOptions{
		NumRows:       -1,
		MaxViolations: 100,
		OutputFormat:  "text",
	}

	cmd := &cobra.Command{
		Use:   "check --input SCHEMA --data FILE",
		Short: "Verify generated rows against their schema",
		Long: `Read a file produced by datagen and verify that every line is a single-element
array holding one object with the schema's keys in order, and that every value lies
within the configured generation parameters.

Use the same --config as the generation run when parameters were customized.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, global, options)
		},
	}

	cmd.Flags().StringVar(&options.Input, "input", "", "The schema file the data was generated from")
	cmd.Flags().StringVar(&options.Data, "data", "", "The generated data file")
	cmd.Flags().IntVar(&options.NumRows, "num_rows", options.NumRows, "Expected number of rows (-1 skips the count)")
	cmd.Flags().IntVar(&options.MaxViolations, "max-violations", options.MaxViolations, "Stop after this many violations (0 for no limit)")
	cmd.Flags().StringVarP(&options.OutputFormat, "format", "f", options.OutputFormat, "Output format (text, json, html)")
	cmd.Flags().StringVar(&options.ReportFile, "report-file", "", "Write the report to this file instead of stdout")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runCheck(cmd *cobra.Command, global *GlobalOptions, options *CheckOptions) error {
	reporter, err := report.ForFormat(options.OutputFormat)
	if err != nil {
		return err
	}

	cfg, log, err := setup(global)
	if err != nil {
		return err
	}
	params, err := cfg.Generation.Params()
	if err != nil {
		return err
	}

	s, err := schema.Load(options.Input)
	if err != nil {
		return err
	}
	if err := generator.New(params).Check(s); err != nil {
		return err
	}

	f, err := os.Open(options.Data)
	if err != nil {
		return fmt.Errorf("opening data file: %w", err)
	}
	defer f.Close()

	checker := verify.NewChecker(s, params)
	checker.ExpectRows = options.NumRows
	checker.MaxViolations = options.MaxViolations

	run := report.NewCheckRun(options.Input, options.Data)
	rep, err := checker.Check(f)
	if err != nil {
		return err
	}
	run.EndTime = time.Now()
	run.Result = rep

	if options.ReportFile != "" {
		if err := reporter.SaveReportToFile(run, options.ReportFile); err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", options.ReportFile)
	} else {
		data, err := reporter.GenerateCheckReport(run)
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return err
		}
	}

	if !rep.OK() {
		log.Warn("Generated data failed verification",
			zap.String("run", run.ID),
			zap.String("data", options.Data),
			zap.Int("violations", len(rep.Violations)),
		)
		return fmt.Errorf("%s: %d violations", options.Data, len(rep.Violations))
	}
	return nil
}
