package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
}

// apiClient talks to the api-server with the session token kept on disk.
type apiClient struct {
	baseURL   string
	tokenPath string
	http      *http.Client
}

func newAPIClient(baseURL, tokenPath string) *apiClient {
	return &apiClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		tokenPath: tokenPath,
		http:      &http.Client{Timeout: 60 * time.Second},
	}
}

// call sends payload to path with the saved token and decodes into out.
func (c *apiClient) call(ctx context.Context, method, path string, payload, out any) error {
	token, err := readToken(c.tokenPath)
	if err != nil {
		return fmt.Errorf("no session, run login first: %w", err)
	}
	return doJSON(ctx, c.http, method, c.baseURL+path, token.Token, payload, out)
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return &apiError{Method: method, Endpoint: endpoint, Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

type apiError struct {
	Method   string
	Endpoint string
	Status   int
	Message  string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s %s failed (%d): %s", e.Method, e.Endpoint, e.Status, e.Message)
}

func errorMessage(body []byte) string {
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		return resp.Error
	}
	return strings.TrimSpace(string(body))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.comicsort-token.json"
	}
	return filepath.Join(home, ".comicsort", "token.json")
}

func saveToken(path string, td tokenData) error {
	if td.Token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(td, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (tokenData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tokenData{}, err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return tokenData{}, err
	}
	td.Token = strings.TrimSpace(td.Token)
	if td.Token == "" {
		return tokenData{}, errors.New("token empty")
	}
	return td, nil
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}
