package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/m3rciful/imgbot/core/buildinfo"
	corecmd "github.com/m3rciful/imgbot/core/cmd"
	"github.com/m3rciful/imgbot/imgbot/app"
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "imgbot",
	Short: "Telegram bot that transforms photos and detects objects in them",
	Long: `imgbot receives photos over Telegram and answers with a segmented, rotated,
contoured, noised or concatenated version, or with the objects a detection
service found in them.

The configuration file is taken from --config, then CONFIG_PATH, then ./config.yaml.`,
	Version:       buildinfo.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return corecmd.Run(corecmd.Options{
			ConfigPath:        configFlag,
			ConfigEnvVar:      "CONFIG_PATH",
			DefaultConfigPath: "config.yaml",
			LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
				return app.LoadConfig(path)
			},
			Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
				return app.Bootstrap(ctx, cfg.(*app.Config))
			},
		})
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configFlag, "config", "c", "", "Path to the YAML configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "imgbot:", err)
		os.Exit(1)
	}
}
