package dashboard

import (
	"context"
	"time"
)

// Metric identifies which aggregate a widget displays.
type Metric string

const (
	MetricClients Metric = "clients"
	MetricHealth  Metric = "health"
	MetricState   Metric = "state"
)

// ChartType selects the widget rendering. It is derived from the metric,
// never chosen independently: client counts plot as an area series, the
// health/state distributions as a pie.
type ChartType string

const (
	ChartArea ChartType = "area"
	ChartPie  ChartType = "pie"
)

// TimeRange is a lookback window in hours. Zero means all time.
type TimeRange int

// Widget is one user-configured chart bound to a site/device/metric tuple.
// The ordered widget list is the client-side source of truth and is
// persisted to the backend wholesale on every mutation.
type Widget struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Site      string    `json:"site"`
	Device    string    `json:"device"`
	Metric    Metric    `json:"metric"`
	ChartType ChartType `json:"type"`
	TimeRange TimeRange `json:"time_range"`
}

// Tuple returns the identity the refresh engine watches: a fetched series
// is only valid for the exact (site, device, metric, range) combination.
func (w Widget) Tuple() [4]string {
	return [4]string{w.Site, w.Device, string(w.Metric), w.TimeRange.String()}
}

// SiteMap maps site names to their device names. Replaced wholesale on
// each bulk load; never mutated locally.
type SiteMap map[string][]string

// Devices returns the device list for a site, falling back to the
// synthetic all-devices entry for unknown sites.
func (m SiteMap) Devices(site string) []string {
	if devices, ok := m[site]; ok && len(devices) > 0 {
		return devices
	}
	return []string{AllDevices}
}

// HasDevice reports whether device is valid for site.
func (m SiteMap) HasDevice(site, device string) bool {
	if device == AllDevices {
		return true
	}
	for _, d := range m.Devices(site) {
		if d == device {
			return true
		}
	}
	return false
}

// Row is one record of a widget series. Columns preserves the key order
// the backend emitted so delimited exports reproduce it exactly.
type Row struct {
	Columns []string
	Values  map[string]any
}

// Value returns the cell for a column, nil when absent.
func (r Row) Value(column string) any {
	if r.Values == nil {
		return nil
	}
	return r.Values[column]
}

// SyncStatus is the latest snapshot of the asynchronous cloud sync job.
// It is only ever overwritten by a fresh server response.
type SyncStatus struct {
	IsSyncing   bool   `json:"is_syncing"`
	CurrentStep string `json:"current_step"`
	FilesTotal  int    `json:"files_total"`
	FilesDone   int    `json:"files_done"`
	LastMessage string `json:"last_message"`
}

// Summary is the site-scoped headline block shown above the widgets.
type Summary struct {
	Site         string `json:"site"`
	Connectivity string `json:"connectivity"`
	Alerts       int    `json:"alerts"`
	TotalClients int    `json:"total_clients"`
}

// User identifies the authenticated operator.
type User struct {
	Username     string   `json:"username"`
	Role         string   `json:"role"`
	AllowedSites []string `json:"allowed_sites"`
}

// IsAdmin reports whether the user may reach admin operations.
func (u User) IsAdmin() bool { return u.Role == "admin" }

// Session holds the bearer credential plus the user it belongs to.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// AnalyzeRequest selects the data for one widget fetch. A nil Hours means
// no lower time bound (the all-time sentinel).
type AnalyzeRequest struct {
	Site   string
	Device string
	Metric Metric
	Hours  *int
}

// AnalyzeResult carries the widget series and, when the backend includes
// one, a summary sub-payload for the widget's site.
type AnalyzeResult struct {
	Rows    []Row
	Summary *Summary
}

// LoadResult is the bulk-load response: topology, the persisted widget
// list, and a human-readable status line.
type LoadResult struct {
	SiteMap SiteMap
	Widgets []Widget
	Message string
	Role    string
}

// Backend is the remote analyzer API surface the dashboard core depends
// on. pkg/apiclient provides the HTTP implementation; tests substitute
// fakes.
type Backend interface {
	Load(ctx context.Context) (LoadResult, error)
	Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error)
	SyncStatus(ctx context.Context) (SyncStatus, error)
	SiteSummary(ctx context.Context, site string) (Summary, error)
	SaveDashboard(ctx context.Context, widgets []Widget) error
}

// SessionStore persists the session across process restarts.
type SessionStore interface {
	Load() (Session, bool, error)
	Save(session Session) error
	Clear() error
}

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// Clock lets tests pin widget id generation and export timestamps.
type Clock func() time.Time
