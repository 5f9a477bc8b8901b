package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClassifier calls the external text-classification capability over
// HTTP. Any non-2xx status or unparsable body is returned as an error; the
// caller falls back to the deterministic keyword classifier.
type HTTPClassifier struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// HTTPConfig controls the HTTP classifier.
type HTTPConfig struct {
	Endpoint   string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewHTTPClassifier creates a classifier client with sane defaults.
func NewHTTPClassifier(cfg HTTPConfig) (*HTTPClassifier, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("intent: classifier endpoint is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPClassifier{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		token:      cfg.Token,
		httpClient: httpClient,
	}, nil
}

// Classify sends {message, appointmentContext} and decodes the result.
func (c *HTTPClassifier) Classify(ctx context.Context, message string, appt AppointmentContext) (Result, error) {
	payload := struct {
		Message            string             `json:"message"`
		AppointmentContext AppointmentContext `json:"appointmentContext"`
	}{Message: message, AppointmentContext: appt}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("intent: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("intent: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("intent: classifier call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("intent: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("intent: classifier returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, fmt.Errorf("intent: decode response: %w", err)
	}
	result.Intent = strings.ToLower(strings.TrimSpace(result.Intent))
	if !validIntent(result.Intent) {
		return Result{}, fmt.Errorf("intent: classifier returned unknown label %q", result.Intent)
	}
	result.Source = "http"
	return result, nil
}
