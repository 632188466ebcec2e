// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the guideline-chunker CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the guideline-chunker CLI.
var rootCmd = &cobra.Command{
	Use:   "guideline-chunker",
	Short: "Collect clinical-guideline PDFs and split them into page chunks",
	Long: `guideline-chunker discovers PDF links on a guideline listing page, downloads
what it can, and turns every PDF in the download directory into per-page text
chunks written as a single JSON file.

The origin usually blocks automated downloads. Files saved by hand into the
download directory are processed the same way as fetched ones.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is normal.
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./guideline-chunker.yaml or ~/.config/guideline-chunker/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "report every download attempt")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("guideline-chunker")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "guideline-chunker"))
		}
	}

	viper.SetEnvPrefix("GUIDELINE_CHUNKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
