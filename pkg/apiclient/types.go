package apiclient

import (
	dashboard "github.com/sitewatch/sitewatch/components/dashboard"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        userPayload `json:"user"`
}

type userPayload struct {
	Username     string   `json:"username"`
	Role         string   `json:"role"`
	AllowedSites []string `json:"allowed_sites"`
}

// widgetPayload is the persisted widget shape. TimeRange travels as a
// pointer because zero is a real bucket (all time); an absent field
// falls back to the default lookback instead.
type widgetPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Site      string `json:"site"`
	Device    string `json:"device"`
	Metric    string `json:"metric"`
	Type      string `json:"type"`
	TimeRange *int   `json:"time_range,omitempty"`
}

func payloadFromWidget(w dashboard.Widget) widgetPayload {
	hours := int(w.TimeRange)
	return widgetPayload{
		ID:        w.ID,
		Title:     w.Title,
		Site:      w.Site,
		Device:    w.Device,
		Metric:    string(w.Metric),
		Type:      string(w.ChartType),
		TimeRange: &hours,
	}
}

func (p widgetPayload) toWidget() dashboard.Widget {
	timeRange := dashboard.DefaultTimeRange
	if p.TimeRange != nil {
		timeRange = dashboard.TimeRange(*p.TimeRange)
	}
	return dashboard.Widget{
		ID:        p.ID,
		Title:     p.Title,
		Site:      p.Site,
		Device:    p.Device,
		Metric:    dashboard.Metric(p.Metric),
		ChartType: dashboard.ChartType(p.Type),
		TimeRange: timeRange,
	}
}

type loadResponse struct {
	Status    string              `json:"status"`
	Message   string              `json:"message"`
	SiteMap   map[string][]string `json:"site_map"`
	Dashboard []widgetPayload     `json:"dashboard"`
	Role      string              `json:"role"`
	Summary   *summaryPayload     `json:"summary,omitempty"`
}

type analyzeRequest struct {
	Site   string `json:"site"`
	Device string `json:"device"`
	Metric string `json:"metric"`
	Hours  *int   `json:"hours"`
}

type summaryPayload struct {
	Site         string `json:"site,omitempty"`
	Connectivity string `json:"connectivity"`
	Alerts       int    `json:"alerts"`
	TotalClients int    `json:"total_clients"`
}

func (p summaryPayload) toSummary() dashboard.Summary {
	return dashboard.Summary{
		Site:         p.Site,
		Connectivity: p.Connectivity,
		Alerts:       p.Alerts,
		TotalClients: p.TotalClients,
	}
}

type settingsResponse struct {
	EnabledMetrics []string `json:"enabled_metrics"`
}

type ackResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
