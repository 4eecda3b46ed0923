// Package httpapi implements service.Service against the task-tracking HTTP API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"tasktrack/internal/config"
	"tasktrack/internal/logging"
	"tasktrack/internal/service"
)

// APITimeout is the timeout for API calls when none is configured.
const APITimeout = 5 * time.Second

// RequestIDHeader carries a per-request id for correlating client and server logs.
const RequestIDHeader = "X-Request-Id"

// Client implements service.Service over HTTPS/JSON.
// Account calls go out unauthenticated; task calls carry the bearer
// credential from the token source given to WithTokenSource.
type Client struct {
	baseURL string
	plain   *http.Client
	authed  *http.Client
	timeout time.Duration
	log     *zap.Logger
}

// New creates a client for the API configured in cfg.
func New(cfg *config.Config, log *zap.Logger) *Client {
	return NewWithHTTPClient(cfg.APIURL, &http.Client{}, cfg.Timeout, log)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = APITimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		plain:   httpClient,
		timeout: timeout,
		log:     logging.OrNop(log),
	}
}

// WithTokenSource returns a copy of c whose task calls are authorized with
// tokens from ts.
func (c *Client) WithTokenSource(ts oauth2.TokenSource) *Client {
	base := c.plain.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	cp := *c
	cp.authed = &http.Client{
		Transport: &oauth2.Transport{Source: authSource{ts}, Base: base},
		Timeout:   c.plain.Timeout,
	}
	return &cp
}

// authSource marks token failures as authorization failures.
type authSource struct {
	src oauth2.TokenSource
}

func (a authSource) Token() (*oauth2.Token, error) {
	tok, err := a.src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrUnauthorized, err)
	}
	return tok, nil
}

// Login implements service.AuthService.
func (c *Client) Login(ctx context.Context, userID string) (service.AuthResult, error) {
	var res service.AuthResult
	body := map[string]string{"userId": userID}
	if err := c.do(ctx, c.plain, http.MethodPost, "/users/login", nil, body, &res); err != nil {
		return service.AuthResult{}, err
	}
	return res, nil
}

// CreateUser implements service.AuthService.
func (c *Client) CreateUser(ctx context.Context, profile service.NewUser) (service.AuthResult, error) {
	var res service.AuthResult
	if err := c.do(ctx, c.plain, http.MethodPost, "/users", nil, profile, &res); err != nil {
		return service.AuthResult{}, err
	}
	return res, nil
}

// ListTasks implements service.TaskService.
func (c *Client) ListTasks(ctx context.Context, userID string) ([]service.Task, error) {
	var tasks []service.Task
	q := url.Values{"userId": {userID}}
	if err := c.do(ctx, c.authed, http.MethodGet, "/tasks/user", q, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask implements service.TaskService.
func (c *Client) CreateTask(ctx context.Context, task service.NewTask) (service.Task, error) {
	var created service.Task
	if err := c.do(ctx, c.authed, http.MethodPost, "/tasks", nil, task, &created); err != nil {
		return service.Task{}, err
	}
	return created, nil
}

// UpdateTask implements service.TaskService.
func (c *Client) UpdateTask(ctx context.Context, id string, fields service.TaskFields) (service.Task, error) {
	var updated service.Task
	q := url.Values{"id": {id}}
	if err := c.do(ctx, c.authed, http.MethodPut, "/tasks", q, fields, &updated); err != nil {
		return service.Task{}, err
	}
	return updated, nil
}

// DeleteTask implements service.TaskService.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	q := url.Values{"id": {id}}
	return c.do(ctx, c.authed, http.MethodDelete, "/tasks", q, nil, nil)
}

// do sends one JSON request and decodes the reply into out, if non-nil.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, query url.Values, body, out any) error {
	if hc == nil {
		return fmt.Errorf("%w: no credential source", service.ErrUnauthorized)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	res, err := hc.Do(req)
	if err != nil {
		c.log.Debug("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return wrapError(err)
	}
	defer googleapi.CloseBody(res)

	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(start)))

	if err := googleapi.CheckResponse(res); err != nil {
		return wrapError(err)
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty response from %s %s", method, path)
		}
		return fmt.Errorf("invalid response from %s %s: %w", method, path, err)
	}
	return nil
}

// wrapError maps transport and HTTP errors onto the service sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return service.ErrTimeout
	}
	if errors.Is(err, service.ErrUnauthorized) || errors.Is(err, context.Canceled) {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := serverMessage(gerr)
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", service.ErrUnauthorized, msg)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", service.ErrNotFound, msg)
		}
		return fmt.Errorf("server error (%d): %s", gerr.Code, msg)
	}

	return err
}

const maxMessageLen = 200

// serverMessage extracts a readable message from an error reply. The API
// answers {"error": "..."} or {"message": "..."}.
func serverMessage(gerr *googleapi.Error) string {
	if gerr.Message != "" {
		return gerr.Message
	}

	var body struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal([]byte(gerr.Body), &body) == nil {
		if s, ok := body.Error.(string); ok && s != "" {
			return s
		}
		if body.Message != "" {
			return body.Message
		}
	}

	msg := strings.TrimSpace(gerr.Body)
	if msg == "" {
		return http.StatusText(gerr.Code)
	}
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen] + "..."
	}
	return msg
}
