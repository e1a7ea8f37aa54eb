package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medscan/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "medscan",
	Short: "medscan - scan, redact and summarize medical documents",
	Long: `medscan ingests scanned or photographed pages of a medical document,
recognizes their text, redacts personally identifiable information,
assembles the redacted pages into a PDF, and generates a patient-friendly
title and summary from the redacted content.

Reports are stored locally per owner and can be listed, renamed and
deleted with the reports subcommand.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Welcome to medscan!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
