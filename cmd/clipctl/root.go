package main

import (
	"clip_service/pkg/config"
	"clip_service/pkg/logger"

	"github.com/spf13/cobra"
)

// commandContext 延遲載入設定，help 不需要連線
type commandContext struct {
	configDir string
	debug     bool
	cfg       *config.Ctl
}

func (c *commandContext) config() (config.Ctl, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.ReadConfig[config.Ctl](config.EnvConfig.Ctl, c.configDir)
	if err != nil {
		return config.Ctl{}, err
	}
	cfg = cfg.WithDefaults()
	c.cfg = &cfg
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "clipctl",
		Short:         "Operator CLI for the clip pipeline and trending engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if ctx.debug {
				logger.Log = logger.Initialize(config.EnvConfig.Ctl, config.EnvConfig.CtlLogPath)
				logger.Log.SetDebugMode(true)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configDir, "config", "c", config.EnvConfig.CtlYAMLPath, "Directory holding clipctl.yaml")
	rootCmd.PersistentFlags().BoolVar(&ctx.debug, "debug", false, "Write debug logs")

	rootCmd.AddCommand(newEnqueueCommand(ctx))
	rootCmd.AddCommand(newTrendingCommand(ctx))
	rootCmd.AddCommand(newTokenCommand(ctx))

	return rootCmd
}
