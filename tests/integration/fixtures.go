package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var baseURL = func() string {
	if v := os.Getenv("FIELDLOG_E2E_BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}()

func skipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("FIELDLOG_E2E") == "" {
		t.Skip("set FIELDLOG_E2E=1 to run against a live stack")
	}
}

// SetupTestUser registers a fresh user and returns an access token.
func SetupTestUser(client *http.Client, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	req, _ := http.NewRequest("POST", baseURL+"/v1/auth/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("failed to register user: %d", resp.StatusCode)
	}

	var authResp struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return "", err
	}

	return authResp.Tokens.AccessToken, nil
}

// CleanupUser deletes every record (and through the cascade, every stored
// object) belonging to the token's owner.
func CleanupUser(client *http.Client, authToken string) {
	req, _ := http.NewRequest("GET", baseURL+"/v1/records", nil)
	req.Header.Set("Authorization", "Bearer "+authToken)

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("error fetching records for cleanup: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var recordsResp struct {
		Records []struct {
			ID string `json:"id"`
		} `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&recordsResp); err != nil {
		fmt.Printf("error decoding records: %v\n", err)
		return
	}

	for _, rec := range recordsResp.Records {
		req, _ := http.NewRequest("DELETE", fmt.Sprintf("%s/v1/records/%s", baseURL, rec.ID), nil)
		req.Header.Set("Authorization", "Bearer "+authToken)
		client.Do(req)
	}
}

// SetupTestUserWithCleanup registers a user and schedules record cleanup.
func SetupTestUserWithCleanup(t *testing.T, client *http.Client) string {
	email := fmt.Sprintf("test_%s@example.com", uuid.NewString())

	authToken, err := SetupTestUser(client, email, "password123")
	require.NoError(t, err)

	t.Cleanup(func() {
		CleanupUser(client, authToken)
	})

	return authToken
}
