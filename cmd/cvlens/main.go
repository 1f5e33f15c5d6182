// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cvlens CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/cvlens/internal/logger"
	"github.com/pdiddy/cvlens/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the cvlens CLI.
var rootCmd = &cobra.Command{
	Use:   "cvlens",
	Short: "Resume screening pipeline over a scoped mailbox folder",
	Long: `cvlens ingests resume attachments from one authorized mailbox folder,
extracts their text (with OCR fallback for scanned PDFs), and scores each
candidate against a job profile.

Each pipeline surface is a subcommand: sync runs the full pipeline, folders
lists the mailbox tree, score re-ranks existing candidates, and candidates,
decide, and export work with the stored results.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./cvlens.yaml or ~/.config/cvlens/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "base directory for durable state (default: ./data)")
	rootCmd.PersistentFlags().Bool("json-log", false, "emit structured JSON logs")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cvlens")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cvlens"))
		}
	}

	viper.SetEnvPrefix("CVLENS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the shared zap logger from the root flags.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	jsonLog, _ := cmd.Flags().GetBool("json-log")
	debug, _ := cmd.Flags().GetBool("debug")
	return logger.New(jsonLog, debug)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
