package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clustta/clustta-blender/internal/models"
	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds every request so a dead agent never hangs the caller.
	DefaultTimeout = 5 * time.Second

	maxResponseBody = 32 << 20
)

// AgentClient defines the contract for talking to the local Clustta Agent.
type AgentClient interface {
	HealthCheck(ctx context.Context) (bool, error)

	ListAccounts(ctx context.Context) ([]models.Account, error)
	SwitchAccount(ctx context.Context, id string) (json.RawMessage, error)
	GetActiveAccount(ctx context.Context) (*models.Account, error)

	ListStudios(ctx context.Context) ([]models.Studio, error)
	SwitchStudio(ctx context.Context, name string) (json.RawMessage, error)
	GetActiveStudio(ctx context.Context) (*models.Studio, error)

	ListProjects(ctx context.Context) ([]models.Project, error)
	SwitchProject(ctx context.Context, uri string) (json.RawMessage, error)
	GetActiveProject(ctx context.Context) (*models.Project, error)

	GetAssets(ctx context.Context, q AssetQuery) ([]models.Asset, error)
	GetCheckpoints(ctx context.Context, assetID string) ([]models.Checkpoint, error)
	CreateCheckpoint(ctx context.Context, projectID, assetID, message, filePath string) (json.RawMessage, error)
}

var _ AgentClient = (*HTTPClient)(nil)

// HTTPClient implements AgentClient over HTTP. It holds no per-request state
// and is safe to share.
type HTTPClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *HTTPClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient uses a copy of hc for requests. The copy's Timeout is set
// to the client timeout; hc itself is not modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			cp := *hc
			c.httpClient = &cp
		}
	}
}

// NewHTTPClient creates an agent client. An empty baseURL selects DefaultBaseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.Timeout = c.timeout
	return c
}

// BaseURL returns the agent address this client talks to.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Call performs one request/response exchange. reqBody, when non-nil, is sent
// as JSON. On success the raw response body is returned; an empty body yields
// a nil result and a nil error.
func (c *HTTPClient) Call(ctx context.Context, method, path string, reqBody interface{}) (json.RawMessage, error) {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	reqID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = c.transportError(err)
		c.logger.Warn("agent request failed",
			"method", method,
			"path", path,
			"error", err,
			"request_id", reqID,
		)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", c.transportError(err))
	}

	c.logger.Debug("agent request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
		"request_id", reqID,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, data)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, &DecodeError{Body: string(data), Err: errors.New("response is not valid JSON")}
	}

	return json.RawMessage(data), nil
}

func (c *HTTPClient) transportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Timeout: c.timeout, Err: err}
	}

	return &UnreachableError{BaseURL: c.baseURL, Err: err}
}

// getJSON decodes the response of a GET into v. An empty body leaves v untouched.
func (c *HTTPClient) getJSON(ctx context.Context, path string, v interface{}) error {
	raw, err := c.Call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &DecodeError{Body: string(raw), Err: err}
	}
	return nil
}

// HealthCheck reports whether the agent answers on /health.
func (c *HTTPClient) HealthCheck(ctx context.Context) (bool, error) {
	if _, err := c.Call(ctx, http.MethodGet, "/health", nil); err != nil {
		return false, err
	}
	return true, nil
}

// ListAccounts lists the accounts stored by the agent.
func (c *HTTPClient) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := c.getJSON(ctx, "/accounts", &accounts); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// SwitchAccount sets the agent's active account.
func (c *HTTPClient) SwitchAccount(ctx context.Context, id string) (json.RawMessage, error) {
	if err := requireArg("account id", id); err != nil {
		return nil, err
	}
	resp, err := c.Call(ctx, http.MethodPost, "/accounts/switch", &SwitchAccountRequest{ID: id})
	if err != nil {
		return nil, fmt.Errorf("switch account: %w", err)
	}
	return resp, nil
}

// GetActiveAccount returns the agent's active account, or nil if the agent reports none.
func (c *HTTPClient) GetActiveAccount(ctx context.Context) (*models.Account, error) {
	var account *models.Account
	if err := c.getJSON(ctx, "/accounts/active", &account); err != nil {
		return nil, fmt.Errorf("get active account: %w", err)
	}
	return account, nil
}

// ListStudios lists studios of the active account.
func (c *HTTPClient) ListStudios(ctx context.Context) ([]models.Studio, error) {
	var studios []models.Studio
	if err := c.getJSON(ctx, "/studios", &studios); err != nil {
		return nil, fmt.Errorf("list studios: %w", err)
	}
	return studios, nil
}

// SwitchStudio sets the agent's active studio.
func (c *HTTPClient) SwitchStudio(ctx context.Context, name string) (json.RawMessage, error) {
	if err := requireArg("studio name", name); err != nil {
		return nil, err
	}
	resp, err := c.Call(ctx, http.MethodPost, "/studios/switch", &SwitchStudioRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("switch studio: %w", err)
	}
	return resp, nil
}

// GetActiveStudio returns the agent's active studio, or nil.
func (c *HTTPClient) GetActiveStudio(ctx context.Context) (*models.Studio, error) {
	var studio *models.Studio
	if err := c.getJSON(ctx, "/studios/active", &studio); err != nil {
		return nil, fmt.Errorf("get active studio: %w", err)
	}
	return studio, nil
}

// ListProjects lists projects in the active studio.
func (c *HTTPClient) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.getJSON(ctx, "/projects", &projects); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// SwitchProject sets the agent's active project.
func (c *HTTPClient) SwitchProject(ctx context.Context, uri string) (json.RawMessage, error) {
	if err := requireArg("project uri", uri); err != nil {
		return nil, err
	}
	resp, err := c.Call(ctx, http.MethodPost, "/projects/switch", &SwitchProjectRequest{URI: uri})
	if err != nil {
		return nil, fmt.Errorf("switch project: %w", err)
	}
	return resp, nil
}

// GetActiveProject returns the agent's active project, or nil.
func (c *HTTPClient) GetActiveProject(ctx context.Context) (*models.Project, error) {
	var project *models.Project
	if err := c.getJSON(ctx, "/projects/active", &project); err != nil {
		return nil, fmt.Errorf("get active project: %w", err)
	}
	return project, nil
}

// GetAssets lists assets of the active project.
func (c *HTTPClient) GetAssets(ctx context.Context, q AssetQuery) ([]models.Asset, error) {
	params := url.Values{}
	ext := q.Extension
	if ext == "" {
		ext = DefaultAssetExtension
	}
	params.Set("ext", ext)
	if q.Assignee != "" {
		params.Set("assignee", q.Assignee)
	}

	var assets []models.Asset
	if err := c.getJSON(ctx, "/assets?"+params.Encode(), &assets); err != nil {
		return nil, fmt.Errorf("get assets: %w", err)
	}
	return assets, nil
}

// GetCheckpoints returns the checkpoint history of an asset.
func (c *HTTPClient) GetCheckpoints(ctx context.Context, assetID string) ([]models.Checkpoint, error) {
	if err := requireArg("asset id", assetID); err != nil {
		return nil, err
	}

	var checkpoints []models.Checkpoint
	path := "/assets/" + url.PathEscape(assetID) + "/checkpoints"
	if err := c.getJSON(ctx, path, &checkpoints); err != nil {
		return nil, fmt.Errorf("get checkpoints %s: %w", assetID, err)
	}
	return checkpoints, nil
}

// CreateCheckpoint saves filePath as a new checkpoint of the asset. The agent
// pushes the checkpoint as part of handling the request.
func (c *HTTPClient) CreateCheckpoint(ctx context.Context, projectID, assetID, message, filePath string) (json.RawMessage, error) {
	if err := requireArg("project id", projectID); err != nil {
		return nil, err
	}
	if err := requireArg("asset id", assetID); err != nil {
		return nil, err
	}

	path := "/projects/" + url.PathEscape(projectID) + "/assets/" + url.PathEscape(assetID) + "/checkpoints"
	req := &CreateCheckpointRequest{Message: message, FilePath: filePath}
	resp, err := c.Call(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, fmt.Errorf("create checkpoint: %w", err)
	}
	return resp, nil
}
