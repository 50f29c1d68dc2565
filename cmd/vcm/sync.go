package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fujie/v0-vcm/internal/models"
	"github.com/spf13/cobra"
)

var syncFlags struct {
	clientConfig
	file   string
	action string
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push credential type definitions to the student login site",
	Long: `Push credential type definitions to the student login site via the
server's sync endpoint. Definitions are read from a JSON file containing an
array of credential types.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	addClientFlags(syncCmd, &syncFlags.clientConfig)
	syncCmd.Flags().StringVar(&syncFlags.file, "file", "", "path to a JSON file with credential type definitions")
	syncCmd.Flags().StringVar(&syncFlags.action, "action", "sync", "sync action (sync, update, delete)")
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncFlags.file == "" {
		return fmt.Errorf("credential types file required (use --file)")
	}

	raw, err := os.ReadFile(syncFlags.file)
	if err != nil {
		return fmt.Errorf("read credential types: %w", err)
	}
	var defs []models.CredentialTypeDefinition
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("parse credential types: %w", err)
	}

	c := syncFlags.newClient()
	resp, err := c.Sync(defs, syncFlags.action)
	if err != nil {
		return err
	}

	fmt.Printf("Mode:    %s\n", resp.Data.Mode)
	fmt.Printf("Synced:  %d\n", resp.Data.SyncedCount)
	if resp.Data.Endpoint != "" {
		fmt.Printf("Endpoint: %s\n", resp.Data.Endpoint)
	}
	if resp.Data.Note != "" {
		fmt.Printf("Note:    %s\n", resp.Data.Note)
	}
	if resp.Data.LastError != "" {
		fmt.Printf("Last error: %s\n", resp.Data.LastError)
	}

	return nil
}
