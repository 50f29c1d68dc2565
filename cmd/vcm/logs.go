package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var logsFlags struct {
	clientConfig
	clear bool
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show or clear the server's request log",
	RunE:  runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)

	addClientFlags(logsCmd, &logsFlags.clientConfig)
	logsCmd.Flags().BoolVar(&logsFlags.clear, "clear", false, "clear the request log instead of listing it")
}

func runLogs(cmd *cobra.Command, args []string) error {
	c := logsFlags.newClient()

	if logsFlags.clear {
		if err := c.ClearLogs(); err != nil {
			return err
		}
		fmt.Println("Request log cleared.")
		return nil
	}

	resp, err := c.GetLogs()
	if err != nil {
		return err
	}

	if len(resp.Logs) == 0 {
		fmt.Println("No log entries found.")
		return nil
	}

	fmt.Printf("%-19s  %-6s  %-36s  %-6s  %s\n", "TIME", "METHOD", "ENDPOINT", "STATUS", "SOURCE")
	for _, entry := range resp.Logs {
		t, _ := time.Parse(time.RFC3339, entry.Timestamp)
		timeStr := t.Format("2006-01-02 15:04:05")
		fmt.Printf("%-19s  %-6s  %-36s  %-6d  %s\n", timeStr, entry.Method, entry.Endpoint, entry.ResponseStatus, entry.Source)
	}

	return nil
}
