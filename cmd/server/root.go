package main

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-wa-fleet/internal/config"
	"github.com/jrsteele09/go-wa-fleet/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "wa-fleet",
		Short:         "Run and administer a fleet of WhatsApp bot sessions",
		Long:          "wa-fleet keeps one messaging session per phone number connected, answers bot commands and exposes an admin API for operators.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "path to fleet.toml (default: ./fleet.toml or <data folder>/fleet.toml)")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newOperatorCmd(opts),
		newSessionsCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// load reads configuration and sets up logging for a command.
func (o *rootOptions) load() (config.Config, zerolog.Logger, error) {
	cfg, err := config.New(config.WithConfigFile(o.configFile))
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logging.Configure(cfg.GetLogLevel(), cfg.GetEnv()), nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
