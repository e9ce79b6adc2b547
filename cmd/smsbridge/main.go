package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smsbridge",
	Short: "Bridges an SMS-gateway mailbox into a remote to-do list",
	Long: `smsbridge polls a mailbox fed by an email-to-SMS gateway, detects
messages that arrived since the previous poll, filters them against a
whitelist of known senders, and creates one task per accepted message in
a remote to-do list, uploading any image attachments along the way.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
