// Package main provides the entry point for the datagen synthetic row generator.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/config"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/logger"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/version"
)

// GlobalOptions are shared by every subcommand.
type GlobalOptions struct {
	ConfigPath string
	LogFile    string
	LogLevel   string
}

func main() {
	defer logger.Sync()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		logger.Sync()
		os.Exit(1)
	}
}

// newRootCommand builds the command tree. The root command itself runs a generation.
func newRootCommand() *cobra.Command {
	global := &GlobalOptions{}

	rootCmd := newGenerateCommand(global)

	rootCmd.PersistentFlags().StringVar(&global.ConfigPath, "config", "", "YAML file with generation parameters")
	rootCmd.PersistentFlags().StringVar(&global.LogFile, "log-file", "", "Also write JSON logs to this file")
	rootCmd.PersistentFlags().StringVar(&global.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of datagen",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	})

	rootCmd.AddCommand(newSchemaCommand(global))
	rootCmd.AddCommand(newCheckCommand(global))
	rootCmd.AddCommand(newPushCommand(global))
	rootCmd.AddCommand(newServeCommand(global))

	return rootCmd
}

// setup loads configuration and the logger for a command run.
func setup(global *GlobalOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(global.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if global.LogLevel != "" {
		cfg.Log.Level = global.LogLevel
	}
	if global.LogFile != "" {
		cfg.Log.File = global.LogFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		return nil, nil, err
	}
	logger.SetLevel(level)
	if cfg.Log.File != "" {
		logger.SetLogPath(cfg.Log.File)
	}

	return cfg, logger.GetLogger(), nil
}
