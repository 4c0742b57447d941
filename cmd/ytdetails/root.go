package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ytget/ytdetails/internal/config"
	"github.com/ytget/ytdetails/internal/logger"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "ytdetails",
		Short:         "Resolve YouTube track details",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default ./ytdetails.{yaml,toml,json})")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log.level (TRACE, DEBUG, INFO, WARN, ERROR)")

	cmd.AddCommand(newDetailsCmd(opts), newServeCmd(opts))
	return cmd
}

// setup loads the configuration and installs the global logger.
func (o *rootOptions) setup() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
		if err := cfg.Log.Validate(); err != nil {
			return nil, fmt.Errorf("log-level: %w", err)
		}
	}
	l, err := logger.CreateLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, err
	}
	logger.SetGlobalLogger(l)
	return cfg, nil
}
