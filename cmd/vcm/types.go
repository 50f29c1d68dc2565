package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var typesFlags struct {
	clientConfig
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List active credential types",
	Long:  `List the active credential types in their formatted wire shape.`,
	RunE:  runTypes,
}

func init() {
	rootCmd.AddCommand(typesCmd)

	addClientFlags(typesCmd, &typesFlags.clientConfig)
}

func runTypes(cmd *cobra.Command, args []string) error {
	c := typesFlags.newClient()
	resp, err := c.ListCredentialTypes()
	if err != nil {
		return err
	}

	if len(resp.CredentialTypes) == 0 {
		fmt.Println("No credential types found.")
		return nil
	}

	fmt.Printf("%-6s  %-20s  %-8s  %-8s  %s\n", "ID", "NAME", "VERSION", "STATUS", "FIELDS")
	for _, ct := range resp.CredentialTypes {
		fmt.Printf("%-6s  %-20s  %-8s  %-8s  %d\n", ct.ID, ct.Name, ct.Version, ct.Status, len(ct.Schema.Properties))
	}

	return nil
}
