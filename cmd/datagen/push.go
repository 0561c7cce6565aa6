package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/push"
)

// PushOptions represents the options for the push command.
type PushOptions struct {
	Data    string
	URL     string
	Timeout time.Duration
}

// newPushCommand creates a new push command.
func newPushCommand(global *GlobalOptions) *cobra.Command {
	options := &PushOptions{
		URL:     "http://localhost:8080/snowpipe/insert",
		Timeout: push.DefaultTimeout,
	}

	cmd := &cobra.Command{
		Use:   "push --data FILE [--url URL]",
		Short: "Send every generated line to an ingest endpoint",
		Long: `Replay a generated file against an HTTP ingest endpoint: each line is sent as
the body of one PUT request with Content-Type application/json. Lines are sent in
order, one at a time; the first failed request stops the push.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(cmd, global, options)
		},
	}

	cmd.Flags().StringVar(&options.Data, "data", "", "The generated data file")
	cmd.Flags().StringVar(&options.URL, "url", options.URL, "Ingest endpoint")
	cmd.Flags().DurationVar(&options.Timeout, "timeout", options.Timeout, "Timeout for each request")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runPush(cmd *cobra.Command, global *GlobalOptions, options *PushOptions) error {
	_, log, err := setup(global)
	if err != nil {
		return err
	}

	client, err := push.NewClient(options.URL, log)
	if err != nil {
		return err
	}
	client.Timeout = options.Timeout

	f, err := os.Open(options.Data)
	if err != nil {
		return fmt.Errorf("opening data file: %w", err)
	}
	defer f.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	stats, err := client.Push(ctx, f)
	log.Info("Push finished",
		zap.String("url", options.URL),
		zap.Int("sent", stats.Sent),
		zap.Int64("bytes", stats.Bytes),
		zap.Duration("duration", time.Since(start)),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "sent %d rows (%d bytes) to %s\n", stats.Sent, stats.Bytes, options.URL)
	return nil
}
