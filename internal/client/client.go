package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"routinetimer/internal/config"
	"routinetimer/internal/types"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL   string
	tokenPath string
	token     string
	http      *http.Client
}

// New builds a client for the daemon address in config.toml.
func New() (*Client, error) {
	cfg, err := config.LoadCoreConfig()
	if err != nil {
		return nil, err
	}
	tokenPath, err := config.TokenPath()
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   strings.TrimRight(cfg.DaemonBaseURL(), "/"),
		tokenPath: tokenPath,
		http:      &http.Client{Timeout: defaultTimeout},
	}
	_ = c.loadToken()
	return c, nil
}

func NewWithBaseURL(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListRoutines(ctx context.Context) ([]types.Routine, error) {
	var resp RoutinesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/routines", nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Routines, nil
}

// GetRoutine looks a routine up by id or by (approximate) name.
func (c *Client) GetRoutine(ctx context.Context, query string) (*types.Routine, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("routine is required")
	}
	var routine types.Routine
	if err := c.doJSON(ctx, http.MethodGet, "/v1/routines/"+url.PathEscape(query), nil, true, &routine); err != nil {
		return nil, err
	}
	return &routine, nil
}

func (c *Client) UpdateRoutine(ctx context.Context, routine types.Routine) (*UpdateRoutineResponse, error) {
	if strings.TrimSpace(routine.ID) == "" {
		return nil, errors.New("routine id is required")
	}
	var resp UpdateRoutineResponse
	if err := c.doJSON(ctx, http.MethodPut, "/v1/routines/"+url.PathEscape(routine.ID), routine, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Execution(ctx context.Context) (*ExecutionResponse, error) {
	var resp ExecutionResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/execution", nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Start(ctx context.Context, routine string) (*ExecutionResponse, error) {
	if strings.TrimSpace(routine) == "" {
		return nil, errors.New("routine is required")
	}
	return c.executionCommand(ctx, "start", StartExecutionRequest{Routine: routine})
}

func (c *Client) Pause(ctx context.Context) (*ExecutionResponse, error) {
	return c.executionCommand(ctx, "pause", nil)
}

func (c *Client) Resume(ctx context.Context) (*ExecutionResponse, error) {
	return c.executionCommand(ctx, "resume", nil)
}

func (c *Client) Skip(ctx context.Context) (*ExecutionResponse, error) {
	return c.executionCommand(ctx, "skip", nil)
}

func (c *Client) Quit(ctx context.Context) (*ExecutionResponse, error) {
	return c.executionCommand(ctx, "quit", nil)
}

func (c *Client) executionCommand(ctx context.Context, command string, body any) (*ExecutionResponse, error) {
	var resp ExecutionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/execution/"+command, body, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) History(ctx context.Context, limit int) (*HistoryResponse, error) {
	path := "/v1/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp HistoryResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Reminders(ctx context.Context) ([]types.Reminder, error) {
	var resp RemindersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/reminders", nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Reminders, nil
}

func (c *Client) ConsumeAutoStart(ctx context.Context) (*AutoStartResponse, error) {
	var resp AutoStartResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/autostart/consume", nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ShutdownDaemon(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/shutdown", nil, true, nil)
}

// EnsureDaemon starts a background daemon when none answers the health
// check, then waits for it to become healthy.
func (c *Client) EnsureDaemon(ctx context.Context) error {
	if resp, err := c.Health(ctx); err == nil && resp.OK {
		return nil
	}
	if err := startDaemon(); err != nil {
		return err
	}

	deadline := time.Now().Add(4 * time.Second)
	var lastErr error
	for time.Now().Before(deadline) {
		resp, err := c.Health(ctx)
		if err == nil && resp.OK {
			_ = c.loadToken()
			return nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(150 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("daemon not healthy after start")
	}
	return lastErr
}

var startDaemon = StartBackgroundDaemon

func (c *Client) doJSON(ctx context.Context, method, path string, body any, requireAuth bool, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requireAuth {
		if err := c.ensureToken(); err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpClient := c.http
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) ensureToken() error {
	if strings.TrimSpace(c.token) == "" {
		if err := c.loadToken(); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.token) == "" {
		return errors.New("token not found; is the daemon running?")
	}
	return nil
}

func (c *Client) loadToken() error {
	if c.tokenPath == "" {
		return nil
	}
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.token = ""
			return nil
		}
		return err
	}
	c.token = strings.TrimSpace(string(data))
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an API 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
