package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelboard/api/internal/model"
)

// LibreTranslateClient talks to a LibreTranslate-compatible /translate endpoint
type LibreTranslateClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// libreTranslateRequest is the JSON body of POST /translate
type libreTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreTranslateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// NewLibreTranslateClient creates a client for one primary provider instance
func NewLibreTranslateClient(baseURL, apiKey string, timeout time.Duration) *LibreTranslateClient {
	return &LibreTranslateClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Name identifies the instance in logs and recorded errors
func (c *LibreTranslateClient) Name() string {
	return "libretranslate " + c.baseURL
}

// Translate sends text to POST {baseURL}/translate
func (c *LibreTranslateClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == "" {
		source = AutoDetect
	}

	bodyBytes, err := json.Marshal(libreTranslateRequest{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: c.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	respBody, err := doRequest(c.httpClient, c.Name(), req)
	if err != nil {
		return "", err
	}

	var resp libreTranslateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", &ProviderError{Provider: c.Name(), Class: model.ErrorClassUnavailable, Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	if resp.Error != "" {
		return "", &ProviderError{Provider: c.Name(), Class: model.ErrorClassContent, Err: fmt.Errorf("translation error: %s", resp.Error)}
	}

	translated := strings.TrimSpace(resp.TranslatedText)
	if translated == "" {
		return "", &ProviderError{Provider: c.Name(), Class: model.ErrorClassContent, Err: ErrEmptyTranslation}
	}

	return translated, nil
}

// IsConfigured returns true if the client has a base URL
func (c *LibreTranslateClient) IsConfigured() bool {
	return c.baseURL != ""
}
