// Package baas talks to the hosted backend-as-a-service: remote function
// invocation and health checks over HTTP.
package baas

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

// CallError reports a failed remote invocation. It is never retried.
type CallError struct {
	Function string
	Status   int
	Message  string
	Err      error
}

func (e *CallError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("baas: invoke %s: %v", e.Function, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("baas: invoke %s: status %d: %s", e.Function, e.Status, e.Message)
	}
	return fmt.Sprintf("baas: invoke %s: %s", e.Function, e.Message)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// SafeMessage is the text shown to users.
func (e *CallError) SafeMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return genericFailure
}

const genericFailure = "Could not reach the server. Please try again."

// Client invokes BaaS functions.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a new client. timeout bounds every request.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient swaps the underlying transport, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	clone := *c
	clone.httpClient = hc
	return &clone
}

// Invoke posts body as JSON to the named function and decodes the JSON
// response into out. Transport failures and non-2xx replies become *CallError.
func (c *Client) Invoke(ctx context.Context, function string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("baas: encode %s: %w", function, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/functions/v1/%s", c.baseURL, function), bytes.NewReader(payload))
	if err != nil {
		return &CallError{Function: function, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &CallError{Function: function, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &CallError{Function: function, Err: err}
	}
	if resp.StatusCode >= 300 {
		return &CallError{Function: function, Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &CallError{Function: function, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// Ping checks whether the backend answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/health", nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("baas: health returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey == "" {
		return
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

// maxMessageLen caps the upstream text surfaced to users.
const maxMessageLen = 200

// errorMessage extracts a user-facing reason from a JSON error body. Anything
// else, such as a proxy's HTML error page, yields "".
func errorMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	msg := strings.TrimSpace(body.Error)
	if msg == "" {
		msg = strings.TrimSpace(body.Message)
	}
	if runes := []rune(msg); len(runes) > maxMessageLen {
		msg = string(runes[:maxMessageLen])
	}
	return msg
}

// IsCallError reports whether err is a remote invocation failure.
func IsCallError(err error) bool {
	var callErr *CallError
	return errors.As(err, &callErr)
}
