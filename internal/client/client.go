// Package client is a thin typed client for the VCM API, used by the CLI
// subcommands.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fujie/v0-vcm/internal/api"
	"github.com/fujie/v0-vcm/internal/models"
)

type Client struct {
	BaseURL string
	APIKey  string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
	}
}

type SyncData struct {
	SyncedCount int    `json:"syncedCount"`
	Mode        string `json:"mode"`
	Endpoint    string `json:"endpoint,omitempty"`
	Note        string `json:"note,omitempty"`
	LastError   string `json:"lastError,omitempty"`
	Message     string `json:"message,omitempty"`
	Timestamp   string `json:"timestamp"`
}

type SyncResponse struct {
	Success bool     `json:"success"`
	Data    SyncData `json:"data"`
}

type IssueData struct {
	CredentialID string `json:"credentialId"`
	IssuedAt     string `json:"issuedAt"`
	Status       string `json:"status"`
}

type IssueResponse struct {
	Success bool      `json:"success"`
	Data    IssueData `json:"data"`
	Message string    `json:"message"`
}

type RevokeData struct {
	CredentialID string `json:"credentialId"`
	Status       string `json:"status"`
	RevokedAt    string `json:"revokedAt"`
}

type RevokeResponse struct {
	Success bool       `json:"success"`
	Data    RevokeData `json:"data"`
	Message string     `json:"message"`
}

func (c *Client) ListCredentialTypes() (*api.ListCredentialTypesResponse, error) {
	req, err := http.NewRequest("GET", c.BaseURL+"/api/credential-types", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	var result api.ListCredentialTypesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Sync(defs []models.CredentialTypeDefinition, action string) (*SyncResponse, error) {
	body, err := json.Marshal(api.SyncRequest{
		CredentialTypes: defs,
		APIKey:          c.APIKey,
		Action:          action,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/api/vcm/sync", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	var result SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) IssueCredential(issue api.IssueCredentialRequest) (*IssueResponse, error) {
	body, err := json.Marshal(issue)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/api/credentials/issue", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	var result IssueResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) RevokeCredential(credentialID, reason string) (*RevokeResponse, error) {
	body, err := json.Marshal(api.RevokeCredentialRequest{
		CredentialID: credentialID,
		Reason:       reason,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/api/credentials/revoke", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	var result RevokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetLogs() (*api.ListLogsResponse, error) {
	req, err := http.NewRequest("GET", c.BaseURL+"/api/logs", nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	var result api.ListLogsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ClearLogs() error {
	req, err := http.NewRequest("DELETE", c.BaseURL+"/api/logs", nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseError(resp)
	}

	return nil
}

func parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || (errResp.Error == "" && errResp.Message == "") {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}
	if errResp.Error != "" && errResp.Message != "" {
		return fmt.Errorf("%s: %s", errResp.Error, errResp.Message)
	}
	if errResp.Error != "" {
		return fmt.Errorf("%s", errResp.Error)
	}
	return fmt.Errorf("%s", errResp.Message)
}
