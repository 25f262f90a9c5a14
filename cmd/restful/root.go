// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/client"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/config"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/entity"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/logging"
)

// globalOptions are the flags shared by every subcommand
type globalOptions struct {
	configFile string
	url        string
	verbose    bool

	out    io.Writer
	logger *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &globalOptions{out: out}

	cmd := &cobra.Command{
		Use:   "restful",
		Short: "Manage entities of a REST API",
		Long: `restful reconciles entities exposed by a REST API against a YAML manifest,
using the same configuration and transport as the formae plugin.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := logging.New(opts.verbose)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		SilenceUsage: true,
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is $RESTFUL_CONFDIR/"+config.FileName+")")
	cmd.PersistentFlags().StringVar(&opts.url, "url", "", "entity API base URL, overrides the config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newApplyCmd(opts))

	return cmd
}

// provider loads the configuration and builds an entity provider from it
func (o *globalOptions) provider(ctx context.Context) (*entity.Provider, error) {
	path := o.configFile
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if o.url != "" {
		cfg.URL = o.url
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.OrNop(o.logger)
	apiClient, err := client.NewClientWithContext(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return entity.NewProvider(apiClient, logger), nil
}
