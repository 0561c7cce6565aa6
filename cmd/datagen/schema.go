package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/schema"
)

// SchemaOptions represents the options for the schema command.
type SchemaOptions struct {
	Input string
	Arrow bool
}

// newSchemaCommand creates a new schema command.
func newSchemaCommand(global *GlobalOptions) *cobra.Command {
	options := &SchemaOptions{}

	cmd := &cobra.Command{
		Use:   "schema --input SCHEMA",
		Short: "Print a parsed schema file",
		Long: `Print the fields of a schema file in declaration order.

With --arrow, also print the Apache Arrow schema that generated records decode to.
Fields with an unrecognized type are listed and make the command fail.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd, global, options)
		},
	}

	cmd.Flags().StringVar(&options.Input, "input", "", "The input schema file name")
	cmd.Flags().BoolVar(&options.Arrow, "arrow", false, "Print the Arrow projection of the schema")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runSchema(cmd *cobra.Command, global *GlobalOptions, options *SchemaOptions) error {
	cfg, _, err := setup(global)
	if err != nil {
		return err
	}

	s, err := schema.Load(options.Input)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d fields\n", options.Input, s.Len())
	for i, f := range s.Fields() {
		fmt.Fprintf(out, "  %d. %s %s\n", i+1, f.Name, f.Type)
	}

	if unknown := s.Unknown(); len(unknown) > 0 {
		for _, f := range unknown {
			fmt.Fprintf(out, "unknown type %q for field %q\n", string(f.Type), f.Name)
		}
		return fmt.Errorf("%d fields have an unknown type", len(unknown))
	}

	if options.Arrow {
		as, err := s.Arrow(cfg.Generation.Timestamp.Layout)
		if err != nil {
			return err
		}
		fmt.Fprint(out, schema.Describe(as))
	}

	return nil
}
