package dashboard

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Sentinels used throughout the site map and summary scoping.
const (
	AllSites       = "All Sites"
	AllDevices     = "All Devices"
	GlobalOverview = "Global Overview"
)

// DefaultRefreshInterval is the wall-clock cadence of widget fetches.
const DefaultRefreshInterval = 60 * time.Second

// DefaultSyncPollInterval is the cadence of sync-status polling while a
// job is assumed active.
const DefaultSyncPollInterval = time.Second

// DefaultTimeRange is applied to widgets created without an explicit
// lookback window.
const DefaultTimeRange TimeRange = 24

// TimeRanges is the fixed set of selectable lookback buckets, in hours.
// Zero is the all-time sentinel.
var TimeRanges = []TimeRange{0, 1, 4, 12, 24, 72, 168}

// Valid reports whether r is one of the selectable buckets.
func (r TimeRange) Valid() bool {
	for _, bucket := range TimeRanges {
		if r == bucket {
			return true
		}
	}
	return false
}

// Hours returns the lookback as a nullable hour count: nil for all time.
func (r TimeRange) Hours() *int {
	if r <= 0 {
		return nil
	}
	h := int(r)
	return &h
}

func (r TimeRange) String() string {
	if r <= 0 {
		return "all time"
	}
	return strconv.Itoa(int(r)) + "h"
}

// ChartTypeFor derives the chart rendering from the metric.
func ChartTypeFor(metric Metric) ChartType {
	if metric == MetricClients {
		return ChartArea
	}
	return ChartPie
}

// ValidMetric reports whether m is a known metric.
func ValidMetric(m Metric) bool {
	switch m {
	case MetricClients, MetricHealth, MetricState:
		return true
	}
	return false
}

// DefaultSiteMap is the synthetic topology used before the first load or
// when the backend has no site data.
func DefaultSiteMap() SiteMap {
	return SiteMap{AllSites: []string{AllDevices}}
}

// DefaultWidgets is the dashboard served to users without a persisted
// configuration: a single all-sites client trend.
func DefaultWidgets() []Widget {
	return []Widget{{
		ID:        "default",
		Title:     "Network Trend",
		Site:      AllSites,
		Device:    AllDevices,
		Metric:    MetricClients,
		ChartType: ChartArea,
		TimeRange: DefaultTimeRange,
	}}
}

// NewWidgetID mints an opaque widget id. The creation timestamp keeps ids
// sortable by age; the suffix keeps two additions within the same
// millisecond distinct.
func NewWidgetID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}
