package apiclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
)

// Mock is an in-memory dashboard.Backend with deterministic data. The
// demo viewer and higher-level tests run against it instead of a live
// backend.
type Mock struct {
	mu        sync.Mutex
	Sites     map[string][]string
	Widgets   []dashboard.Widget
	Message   string
	Role      string
	syncTicks int
	now       func() time.Time
}

var _ dashboard.Backend = (*Mock)(nil)

// NewMock builds a mock with a small two-site topology and a short
// simulated sync window.
func NewMock() *Mock {
	return &Mock{
		Sites: map[string][]string{
			"HQ":     {"core-sw-1", "ap-lobby", "ap-floor2"},
			"Branch": {"edge-fw", "ap-front"},
		},
		Message:   "Connected. Syncing cloud in background...",
		Role:      "admin",
		syncTicks: 3,
		now:       time.Now,
	}
}

func (m *Mock) Load(context.Context) (dashboard.LoadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	siteMap := dashboard.SiteMap{dashboard.AllSites: {dashboard.AllDevices}}
	for site, devices := range m.Sites {
		siteMap[site] = append([]string{dashboard.AllDevices}, devices...)
	}
	return dashboard.LoadResult{
		SiteMap: siteMap,
		Widgets: append([]dashboard.Widget(nil), m.Widgets...),
		Message: m.Message,
		Role:    m.Role,
	}, nil
}

func (m *Mock) Analyze(_ context.Context, req dashboard.AnalyzeRequest) (dashboard.AnalyzeResult, error) {
	hours := 24
	if req.Hours != nil {
		hours = *req.Hours
	}
	if hours <= 0 || hours > 72 {
		hours = 72
	}

	var rows []dashboard.Row
	switch req.Metric {
	case dashboard.MetricClients:
		start := m.now().Add(-time.Duration(hours) * time.Hour).Truncate(time.Hour)
		for i := 0; i < hours; i++ {
			ts := start.Add(time.Duration(i) * time.Hour)
			clients := 20 + (i*7)%35
			rows = append(rows, dashboard.Row{
				Columns: []string{"time", "clients"},
				Values: map[string]any{
					"time":    ts.Format("2006-01-02 15:04"),
					"clients": clients,
				},
			})
		}
	default:
		labels := []string{"good", "warning", "critical"}
		if req.Metric == dashboard.MetricState {
			labels = []string{"online", "offline"}
		}
		for i, label := range labels {
			rows = append(rows, dashboard.Row{
				Columns: []string{"name", "value"},
				Values:  map[string]any{"name": label, "value": 30 - i*12},
			})
		}
	}

	summary := dashboard.Summary{
		Site:         req.Site,
		Connectivity: "98%",
		Alerts:       2,
		TotalClients: 57,
	}
	return dashboard.AnalyzeResult{Rows: rows, Summary: &summary}, nil
}

func (m *Mock) SyncStatus(context.Context) (dashboard.SyncStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.syncTicks > 0 {
		m.syncTicks--
		done := 3 - m.syncTicks
		return dashboard.SyncStatus{
			IsSyncing:   true,
			CurrentStep: fmt.Sprintf("downloading file %d", done),
			FilesTotal:  3,
			FilesDone:   done,
		}, nil
	}
	return dashboard.SyncStatus{LastMessage: "Sync complete"}, nil
}

func (m *Mock) SiteSummary(_ context.Context, site string) (dashboard.Summary, error) {
	return dashboard.Summary{Site: site, Connectivity: "98%", Alerts: 2, TotalClients: 57}, nil
}

func (m *Mock) Settings(context.Context) ([]string, error) {
	return []string{
		string(dashboard.MetricClients),
		string(dashboard.MetricHealth),
		string(dashboard.MetricState),
	}, nil
}

func (m *Mock) SaveDashboard(_ context.Context, widgets []dashboard.Widget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Widgets = append([]dashboard.Widget(nil), widgets...)
	return nil
}
