package apiclient

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

	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
)

// DefaultTimeout bounds every request. The transport default of "no
// deadline" would let a dead backend pin a widget's loading flag
// forever.
const DefaultTimeout = 15 * time.Second

// ErrUnauthorized is returned when any authenticated call comes back
// 401. The session has already been cleared by the time callers see it.
var ErrUnauthorized = errors.New("apiclient: unauthorized")

// APIError carries the backend's error detail for non-401 failures.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("apiclient: remote error %d", e.Status)
	}
	return fmt.Sprintf("apiclient: remote error %d: %s", e.Status, e.Detail)
}

// Config configures the API client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Sessions   dashboard.SessionStore
	// OnUnauthorized fires after a 401 has cleared the session. The CLI
	// uses it to drop back to the login prompt.
	OnUnauthorized func()
}

// Client talks to the remote analyzer API. It implements
// dashboard.Backend so the rest of the dashboard never sees HTTP.
type Client struct {
	baseURL        string
	client         *http.Client
	sessions       dashboard.SessionStore
	onUnauthorized func()
}

var _ dashboard.Backend = (*Client)(nil)

// New builds a client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("apiclient: base url is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("apiclient: session store is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		client:         httpClient,
		sessions:       cfg.Sessions,
		onUnauthorized: cfg.OnUnauthorized,
	}, nil
}

// Login authenticates and persists the returned session.
func (c *Client) Login(ctx context.Context, username, password string) (dashboard.Session, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return dashboard.Session{}, err
	}
	session := dashboard.Session{
		Token: resp.AccessToken,
		User: dashboard.User{
			Username:     resp.User.Username,
			Role:         resp.User.Role,
			AllowedSites: resp.User.AllowedSites,
		},
	}
	if err := c.sessions.Save(session); err != nil {
		return dashboard.Session{}, err
	}
	return session, nil
}

// Logout drops the persisted session. The backend keeps no server-side
// session state, so no request is involved.
func (c *Client) Logout() error {
	return c.sessions.Clear()
}

// Session returns the current session, if any.
func (c *Client) Session() (dashboard.Session, bool, error) {
	return c.sessions.Load()
}

// Load performs the bulk load: topology, persisted widget list, and the
// greeting message. Server-side it also kicks off the cloud sync.
func (c *Client) Load(ctx context.Context) (dashboard.LoadResult, error) {
	var resp loadResponse
	if err := c.do(ctx, http.MethodPost, "/api/load", nil, &resp); err != nil {
		return dashboard.LoadResult{}, err
	}
	widgets := make([]dashboard.Widget, 0, len(resp.Dashboard))
	for _, p := range resp.Dashboard {
		widgets = append(widgets, p.toWidget())
	}
	return dashboard.LoadResult{
		SiteMap: dashboard.SiteMap(resp.SiteMap),
		Widgets: widgets,
		Message: resp.Message,
		Role:    resp.Role,
	}, nil
}

// Analyze fetches one widget's series. The row payload keeps the
// backend's key order.
func (c *Client) Analyze(ctx context.Context, req dashboard.AnalyzeRequest) (dashboard.AnalyzeResult, error) {
	payload := analyzeRequest{
		Site:   req.Site,
		Device: req.Device,
		Metric: string(req.Metric),
		Hours:  req.Hours,
	}
	var resp struct {
		Data    json.RawMessage `json:"data"`
		Summary *summaryPayload `json:"summary,omitempty"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/analyze", payload, &resp); err != nil {
		return dashboard.AnalyzeResult{}, err
	}
	rows, err := decodeRows(resp.Data)
	if err != nil {
		// A malformed series is treated as empty; the widget keeps its
		// previous data and recovers on the next tick.
		rows = []dashboard.Row{}
	}
	result := dashboard.AnalyzeResult{Rows: rows}
	if resp.Summary != nil {
		summary := resp.Summary.toSummary()
		result.Summary = &summary
	}
	return result, nil
}

// SyncStatus polls the cloud-sync job.
func (c *Client) SyncStatus(ctx context.Context) (dashboard.SyncStatus, error) {
	var status dashboard.SyncStatus
	if err := c.do(ctx, http.MethodGet, "/api/sync-status", nil, &status); err != nil {
		return dashboard.SyncStatus{}, err
	}
	return status, nil
}

// SiteSummary fetches the headline block for one site.
func (c *Client) SiteSummary(ctx context.Context, site string) (dashboard.Summary, error) {
	var resp summaryPayload
	path := "/api/summary?site=" + url.QueryEscape(site)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return dashboard.Summary{}, err
	}
	summary := resp.toSummary()
	if summary.Site == "" {
		summary.Site = site
	}
	return summary, nil
}

// SaveDashboard persists the full widget list.
func (c *Client) SaveDashboard(ctx context.Context, widgets []dashboard.Widget) error {
	payloads := make([]widgetPayload, 0, len(widgets))
	for _, w := range widgets {
		payloads = append(payloads, payloadFromWidget(w))
	}
	body := map[string]any{"config": payloads}
	return c.do(ctx, http.MethodPost, "/api/user/dashboard", body, nil)
}

// Settings reads the public metrics-visibility settings. No auth
// required; a stale session does not block the login screen.
func (c *Client) Settings(ctx context.Context) ([]string, error) {
	var resp settingsResponse
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &resp); err != nil {
		return nil, err
	}
	return resp.EnabledMetrics, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("apiclient: encode payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if session, ok, _ := c.sessions.Load(); ok {
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Force logout, whichever call tripped it.
		_ = c.sessions.Clear()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}

// decodeAPIError extracts the backend's {"detail": ...} error shape,
// falling back to the raw body when it does not parse.
func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var shaped struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &shaped); err == nil && shaped.Detail != nil {
		return &APIError{Status: resp.StatusCode, Detail: fmt.Sprintf("%v", shaped.Detail)}
	}
	return &APIError{Status: resp.StatusCode, Detail: strings.TrimSpace(string(raw))}
}
