package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"smsbridge/internal/config"
	"smsbridge/internal/graph"
	"smsbridge/pkg/logger"
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Print the user's to-do lists (diagnostic)",
	Long:  `Fetches and prints the remote to-do lists with their IDs, to help pick the tasks list_id for the configuration.`,
	RunE:  runLists,
}

func init() {
	rootCmd.AddCommand(listsCmd)
}

func runLists(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewLogger()
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	httpClient, err := graph.NewHTTPClient(ctx, cfg.Graph)
	if err != nil {
		return err
	}
	client := graph.NewClient(cfg.Graph, cfg.Mail, httpClient, log)

	lists, err := client.ListTaskLists(ctx)
	if err != nil {
		return err
	}

	for _, l := range lists {
		fmt.Printf("%s\t%s\n", l.ID, l.DisplayName)
	}
	return nil
}
