package main

import (
	"os"

	"github.com/fujie/v0-vcm/internal/client"
	"github.com/spf13/cobra"
)

type clientConfig struct {
	apiKey string
	apiURL string
}

func addClientFlags(cmd *cobra.Command, cfg *clientConfig) {
	cmd.Flags().StringVar(&cfg.apiKey, "api-key", os.Getenv("VCM_API_KEY"), "API key for authentication")
	cmd.Flags().StringVar(&cfg.apiURL, "api-url", getEnv("VCM_API_URL", "http://localhost:8080"), "API server URL")
}

func (cfg *clientConfig) newClient() *client.Client {
	return client.NewClient(cfg.apiURL, cfg.apiKey)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
