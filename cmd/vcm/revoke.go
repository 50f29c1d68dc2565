package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var revokeFlags struct {
	clientConfig
	reason string
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <credential-id>",
	Short: "Revoke an issued credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runRevoke,
}

func init() {
	rootCmd.AddCommand(revokeCmd)

	addClientFlags(revokeCmd, &revokeFlags.clientConfig)
	revokeCmd.Flags().StringVar(&revokeFlags.reason, "reason", "", "revocation reason")
}

func runRevoke(cmd *cobra.Command, args []string) error {
	c := revokeFlags.newClient()
	resp, err := c.RevokeCredential(args[0], revokeFlags.reason)
	if err != nil {
		return err
	}

	fmt.Printf("Credential %s revoked at %s.\n", resp.Data.CredentialID, resp.Data.RevokedAt)
	return nil
}
