package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/api"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/schema"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/store"
)

// ServeOptions represents the options for the serve command.
type ServeOptions struct {
	Port    string
	Input   string
	Store   string
	Prefork bool
}

// newServeCommand creates a new serve command.
func newServeCommand(global *GlobalOptions) *cobra.Command {
	options := &ServeOptions{
		Port: "8080",
	}

	cmd := &cobra.Command{
		Use:   "serve [--port PORT] [--input SCHEMA]",
		Short: "Run a local ingest endpoint for pushed rows",
		Long: `Run a local stand-in for the row ingest service:

  PUT /snowpipe/insert   accepts a JSON array of records
  GET /snowpipe/hello    liveness greeting
  GET /snowpipe/rows     stored records, with --store (?limit=N, default 100)
  GET /health, /version

Each batch answers with inserts_attempted, inserts_succeeded, insert_errors and
error_rows. With --input, a row carrying a column the schema does not declare is
reported in error_rows while the rest of the batch is accepted. With --store, accepted records are
appended to a bbolt file and survive restarts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, global, options)
		},
	}

	cmd.Flags().StringVarP(&options.Port, "port", "p", options.Port, "Port to listen on")
	cmd.Flags().StringVar(&options.Input, "input", "", "Schema file used to reject rows with unknown columns")
	cmd.Flags().StringVar(&options.Store, "store", "", "bbolt file that keeps accepted records")
	cmd.Flags().BoolVar(&options.Prefork, "prefork", false, "Use multiple OS processes (not with --store)")

	return cmd
}

func runServe(cmd *cobra.Command, global *GlobalOptions, options *ServeOptions) error {
	if options.Store != "" && options.Prefork {
		return errors.New("--store cannot be combined with --prefork: child processes cannot share the store file")
	}

	_, log, err := setup(global)
	if err != nil {
		return err
	}

	opts := api.ServerOptions{
		Port:    options.Port,
		Prefork: options.Prefork,
		Logger:  log,
	}
	if options.Input != "" {
		s, err := schema.Load(options.Input)
		if err != nil {
			return err
		}
		opts.Schema = s
	}
	if options.Store != "" {
		st, err := store.Open(options.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		opts.Store = st
	}
	server := api.NewServer(opts)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Received shutdown signal, stopping server...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("Server shutdown successfully", zap.Int64("inserted", server.Inserted()))
	return nil
}
