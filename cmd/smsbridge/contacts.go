package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"smsbridge/internal/contacts"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts [csv-path]",
	Short: "Parse and print the contact whitelist (diagnostic)",
	Long: `Parses the contact CSV the bridge would run with and prints the
normalized key to name mapping. The path argument overrides
CONTACTS_CSV_PATH.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runContacts,
}

func init() {
	rootCmd.AddCommand(contactsCmd)
}

func runContacts(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	path := os.Getenv("CONTACTS_CSV_PATH")
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no contacts source: pass a path or set CONTACTS_CSV_PATH")
	}

	dir, err := contacts.LoadFile(path)
	if err != nil {
		return err
	}

	entries := dir.Entries()
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Printf("%s\t%s\n", k, entries[k])
	}
	fmt.Printf("%d entries\n", len(entries))
	return nil
}
