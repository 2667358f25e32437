// Package cmd implements the CLI (Command Line Interface) of the application.
//
// migrate - Initiate a database migration manually
// serve - The main application service entry point
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string //nolint:gochecknoglobals

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "labnotify",
	Short: "Lab inventory notification and alerting service",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	setupCLI()

	if errExecute := rootCmd.Execute(); errExecute != nil {
		os.Exit(1)
	}
}

func setupCLI() {
	if BuildVersion == "" {
		BuildVersion = "master"
	}

	rootCmd.Version = BuildVersion
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/labnotify.yml)")
}
