package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/modelboard/api/internal/model"
)

// QuotaMarker is the text MyMemory puts in an otherwise successful response
// once the daily free quota is used up.
const QuotaMarker = "MYMEMORY WARNING"

// MyMemoryClient is the secondary provider. It takes a keyed GET request and
// reports most failures inside a 200 response.
type MyMemoryClient struct {
	httpClient *http.Client
	baseURL    string
	email      string
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string  `json:"translatedText"`
		Match          float64 `json:"match"`
	} `json:"responseData"`
	QuotaFinished   bool            `json:"quotaFinished"`
	ResponseDetails string          `json:"responseDetails"`
	ResponseStatus  json.RawMessage `json:"responseStatus"`
}

// NewMyMemoryClient creates the fallback provider client
func NewMyMemoryClient(baseURL, email string, timeout time.Duration) *MyMemoryClient {
	return &MyMemoryClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		email:   email,
	}
}

// Name identifies the provider in logs and recorded errors
func (c *MyMemoryClient) Name() string {
	return "mymemory"
}

// Translate sends GET {baseURL}/get?q=...&langpair=source|target
func (c *MyMemoryClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == "" || source == AutoDetect {
		source = "Autodetect"
	}

	params := url.Values{}
	params.Set("q", text)
	params.Set("langpair", source+"|"+target)
	if c.email != "" {
		params.Set("de", c.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	respBody, err := doRequest(c.httpClient, c.Name(), req)
	if err != nil {
		return "", err
	}

	var resp myMemoryResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", &ProviderError{Provider: c.Name(), Class: model.ErrorClassUnavailable, Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	translated := strings.TrimSpace(resp.ResponseData.TranslatedText)

	if resp.QuotaFinished || strings.Contains(strings.ToUpper(translated), QuotaMarker) {
		return "", &ProviderError{Provider: c.Name(), Class: model.ErrorClassUnavailable, Err: ErrQuotaExceeded}
	}

	if status := parseStatus(resp.ResponseStatus); status != 0 && status != http.StatusOK {
		msg := resp.ResponseDetails
		if msg == "" {
			msg = translated
		}
		return "", &ProviderError{
			Provider:   c.Name(),
			Class:      classifyStatus(status),
			StatusCode: status,
			Err:        fmt.Errorf("translation error: %s", truncate(msg, 200)),
		}
	}

	if translated == "" {
		return "", &ProviderError{Provider: c.Name(), Class: model.ErrorClassContent, Err: ErrEmptyTranslation}
	}

	return translated, nil
}

// IsConfigured returns true if the client has a base URL
func (c *MyMemoryClient) IsConfigured() bool {
	return c.baseURL != ""
}

// parseStatus reads responseStatus, which MyMemory sends either as a number
// or as a quoted string.
func parseStatus(raw json.RawMessage) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
