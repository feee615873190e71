package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jmehdipour/ux-autorater/cmd/preview"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
)

var (
	cfgPath string
	envFile string
	rootCmd = &cobra.Command{
		Use:   "ux-autorater",
		Short: "UX Autorater order-to-delivery service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(envFile)
		},
		SilenceUsage: true,
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before config; ignored when absent")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(preview.NewPreviewCmd())
}

// loadEnvFile does not override variables already set in the environment.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("env file %s: %w", path, err)
	}
	return nil
}
