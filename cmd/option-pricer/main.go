package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/contactkeval/option-pricer/internal/config"
	"github.com/contactkeval/option-pricer/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "option-pricer",
	Short:         "Black-Scholes pricing for European option batches",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, err := cmd.Flags().GetString("env-file")
		if err != nil {
			return err
		}
		return config.LoadEnvFile(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before the environment is read")

	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newQuoteCmd())
	rootCmd.AddCommand(newGenerateCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Errorf("option-pricer: %v", err)
		stop()
		os.Exit(1)
	}
}
