package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/modelboard/api/internal/model"
)

// Provider translates text through one remote backend
type Provider interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
	Name() string
}

// AutoDetect is the source language sent when the bio language is unknown
const AutoDetect = "auto"

var (
	ErrEmptyTranslation = errors.New("provider returned empty translation")
	ErrQuotaExceeded    = errors.New("provider quota exceeded")
)

// ProviderError is a failed call to a translation provider
type ProviderError struct {
	Provider   string
	Class      model.ErrorClass
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ClassOf returns the error class of err. Anything that is not a
// ProviderError is treated as an outage.
func ClassOf(err error) model.ErrorClass {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Class != "" {
		return pe.Class
	}
	return model.ErrorClassUnavailable
}

// classifyStatus maps a non-2xx status code to an error class
func classifyStatus(code int) model.ErrorClass {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return model.ErrorClassUnavailable
	case code >= 400:
		return model.ErrorClassContent
	default:
		return model.ErrorClassUnavailable
	}
}

// doRequest executes req and returns the body of a 2xx response
func doRequest(httpClient *http.Client, name string, req *http.Request) ([]byte, error) {
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: name, Class: model.ErrorClassUnavailable, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: name, Class: model.ErrorClassUnavailable, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{
			Provider:   name,
			Class:      classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", truncate(string(body), 200)),
		}
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
