/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ghooey",
	Short: "Headless toolkit for the Aave V3 lending pool",
	Long: `ghooey drives Aave V3 lending operations for a keyed wallet: supplies,
borrows, repayments, withdrawals, credit delegation and plain transfers,
with live balance and portfolio tracking from contract events.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "configuration file")
}
