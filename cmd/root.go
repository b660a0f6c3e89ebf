package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/autocheck-bot/pkg/config"
	logx "github.com/tanpawarit/autocheck-bot/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:          "autocheck-bot",
	Short:        "Telegram bot that checks vehicles by VIN or license plate",
	Long:         "Aggregates registration history, compulsory insurance and inspection records from parser-api.com into one chat reply.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configx.SetEnvFile(envFile)

		logCfg, err := configx.New[logx.Config]("LOG")
		if err != nil {
			return fmt.Errorf("load log config: %w", err)
		}
		logx.Init(*logCfg)
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file")
}
