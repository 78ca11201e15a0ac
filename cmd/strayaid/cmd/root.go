// Package cmd implements the strayaid command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "strayaid",
	Short: "StrayAid case coordination engine",
	Long: `strayaid runs the animal-rescue case coordination and messaging engine.

Citizens report animals in distress; the engine triages reports, proposes
assignments to rescue responders, tracks each case through its lifecycle,
and carries the per-case conversation between reporter and responder.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
}
