package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Conversational appointment booking backend",
	Long: `server runs the WhatsApp booking assistant: it receives customer messages
from the gateway webhook, keeps per-customer sessions, books appointments
through a single transactor and exposes an admin API.

Without a subcommand it behaves like "server serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
