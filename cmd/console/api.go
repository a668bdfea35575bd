package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/session"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func decodeSession(body []byte, status, wantStatus int, operation string) (*session.AdventureSession, error) {
	if status != wantStatus {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", status, string(body))
		}
		return nil, fmt.Errorf("failed to %s: %s", operation, errorResp.Error)
	}

	var sess session.AdventureSession
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &sess, nil
}

func postJSON(client *http.Client, url string, payload any) ([]byte, int, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func createAdventure(client *http.Client, baseURL string, players int) (*session.AdventureSession, error) {
	body, status, err := postJSON(client, baseURL+"/v1/adventures", map[string]int{"players": players})
	if err != nil {
		return nil, err
	}
	return decodeSession(body, status, http.StatusCreated, "create adventure")
}

func getAdventure(client *http.Client, baseURL string, id uuid.UUID) (*session.AdventureSession, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/adventures/%s", baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return decodeSession(body, resp.StatusCode, http.StatusOK, "get adventure")
}

func chooseScenario(client *http.Client, baseURL string, id uuid.UUID, choice int) (*session.AdventureSession, error) {
	url := fmt.Sprintf("%s/v1/adventures/%s/scenario", baseURL, id)
	body, status, err := postJSON(client, url, map[string]int{"choice": choice})
	if err != nil {
		return nil, err
	}
	return decodeSession(body, status, http.StatusOK, "choose scenario")
}

func chooseCharacter(client *http.Client, baseURL string, id uuid.UUID, player, choice int) (*session.AdventureSession, error) {
	url := fmt.Sprintf("%s/v1/adventures/%s/characters", baseURL, id)
	body, status, err := postJSON(client, url, map[string]int{"player": player, "choice": choice})
	if err != nil {
		return nil, err
	}
	return decodeSession(body, status, http.StatusOK, "choose character")
}

func submitAction(client *http.Client, baseURL string, id uuid.UUID, character int, action string) (*session.AdventureSession, error) {
	url := fmt.Sprintf("%s/v1/adventures/%s/actions", baseURL, id)
	payload := map[string]any{"character": character, "action": action}
	body, status, err := postJSON(client, url, payload)
	if err != nil {
		return nil, err
	}
	return decodeSession(body, status, http.StatusOK, "submit action")
}
