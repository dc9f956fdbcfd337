package main

import (
	"github.com/spf13/cobra"

	"github.com/jonwraymond/fanout/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configFile string
	envFiles   []string
}

func (o *rootOptions) load() (*config.Config, error) {
	var opts []config.Option
	if o.configFile != "" {
		opts = append(opts, config.WithFile(o.configFile))
	}
	if len(o.envFiles) > 0 {
		opts = append(opts, config.WithDotEnv(o.envFiles...))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Service.Version == "dev" && version != "dev" {
		cfg.Service.Version = version
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "fanoutd",
		Short: "Resilient fan-out aggregation service",
		Long: `fanoutd assembles appointment detail views from several downstream
services concurrently. Each downstream call is guarded by a deadline, a
circuit breaker and a fallback value, so a slow or failing service degrades
one section of the response instead of failing it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, ".env files to load (default ./.env if present)")

	cmd.AddCommand(
		newServeCmd(opts),
		newConfigCmd(opts),
		newTokenCmd(opts),
		newVersionCmd(),
	)
	return cmd
}
