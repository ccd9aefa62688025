package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/projecthub-edu/projecthub-api/internal/config"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"go.uber.org/zap"
)

// NetworkErrorMessage is the uniform message for transport-level failures
const NetworkErrorMessage = "Network error"

// APIError is the client's single failure shape. Status is the upstream HTTP
// status, or 0 when the request never produced a response (transport failure).
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// IsNetwork reports whether the failure happened before any HTTP response
func (e *APIError) IsNetwork() bool {
	return e.Status == 0
}

// Client talks to the upstream backend. Every call resolves to exactly one of
// a decoded body or an *APIError; the client never touches the session store.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an upstream backend client
func NewClient(cfg *config.BackendConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
		logger: logger,
	}
}

// do performs a request and normalizes the outcome:
//   - the bearer token is attached only when non-empty
//   - transport failure yields status 0 with the uniform network message
//   - non-2xx uses the body's "message" field when parsable, else "HTTP <status>"
//   - 204 leaves out untouched and succeeds
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) *APIError {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &APIError{Status: 0, Message: NetworkErrorMessage}
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Status: 0, Message: NetworkErrorMessage}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Upstream request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return &APIError{Status: 0, Message: NetworkErrorMessage}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := fmt.Sprintf("HTTP %d", resp.StatusCode)
		var errBody struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Message != "" {
			message = errBody.Message
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Warn("Upstream response could not be decoded",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return &APIError{Status: 0, Message: NetworkErrorMessage}
	}
	return nil
}

// Login authenticates with the upstream backend
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, *APIError) {
	var resp LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account upstream
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, *APIError) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me fetches the authenticated user's profile
func (c *Client) Me(ctx context.Context, token string) (*domain.UserSummary, *APIError) {
	var user domain.UserSummary
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetGroup fetches a group with its members
func (c *Client) GetGroup(ctx context.Context, token string, groupID int64) (*Group, *APIError) {
	var group Group
	path := fmt.Sprintf("/api/groups/%d", groupID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// GetProject fetches a project record
func (c *Client) GetProject(ctx context.Context, token string, projectID int64) (*Project, *APIError) {
	var project Project
	path := fmt.Sprintf("/api/projects/%d", projectID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateArtifactMetadata records an uploaded deliverable file upstream
func (c *Client) CreateArtifactMetadata(ctx context.Context, token string, meta ArtifactMetadata) (json.RawMessage, *APIError) {
	path := fmt.Sprintf("/api/deliverables/%d/artifacts", meta.DeliverableID)
	return c.PostJSON(ctx, token, path, mustRaw(meta))
}

// Generic verbs used by the proxy handlers. The upstream body passes through
// untouched on success.

// GetJSON proxies a GET and returns the raw upstream body
func (c *Client) GetJSON(ctx context.Context, token, path string) (json.RawMessage, *APIError) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// PostJSON proxies a POST with a raw JSON payload
func (c *Client) PostJSON(ctx context.Context, token, path string, payload json.RawMessage) (json.RawMessage, *APIError) {
	var raw json.RawMessage
	var body interface{}
	if len(payload) > 0 {
		body = payload
	}
	if err := c.do(ctx, http.MethodPost, path, token, body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// PutJSON proxies a PUT with a raw JSON payload
func (c *Client) PutJSON(ctx context.Context, token, path string, payload json.RawMessage) (json.RawMessage, *APIError) {
	var raw json.RawMessage
	var body interface{}
	if len(payload) > 0 {
		body = payload
	}
	if err := c.do(ctx, http.MethodPut, path, token, body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// DeleteJSON proxies a DELETE. A 204 upstream yields a nil body.
func (c *Client) DeleteJSON(ctx context.Context, token, path string) (json.RawMessage, *APIError) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodDelete, path, token, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func mustRaw(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
