package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// .env is optional; real environment variables win over its entries.
	_ = godotenv.Load()

	var configPath string
	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Country catalog with exchange-rate GDP estimates",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CATALOG_CONFIG"), "path to a YAML config file")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(refreshCmd(&configPath))
	root.AddCommand(statusCmd(&configPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func refreshCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run one refresh pass against the configured store and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRefresh(cmd.Context(), cmd.OutOrStdout(), *configPath)
		},
	}
}

func statusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print catalog size and last refresh time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout(), *configPath)
		},
	}
}
