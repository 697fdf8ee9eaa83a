package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	errMissingBackend = errors.New("dashboard: backend not configured")
	errUnknownWidget  = errors.New("dashboard: widget not found")
	errInvalidRange   = errors.New("dashboard: time range is not a selectable bucket")
	errInvalidMetric  = errors.New("dashboard: unknown metric")
)

// ModelOptions configures the widget model. Every collaborator is an
// interface so applications can swap implementations.
type ModelOptions struct {
	Backend   Backend
	Validator *ConfigValidator
	Telemetry Telemetry
	Clock     Clock
}

// Model owns the ordered widget list. Mutations replace the in-memory
// list first and then persist the whole list to the backend; a reload
// that has not round-tripped sees the server's copy, never a local-only
// edit.
type Model struct {
	opts ModelOptions

	mu      sync.RWMutex
	widgets []Widget
	siteMap SiteMap
	message string
}

// NewModel builds a Model with safe defaults.
func NewModel(opts ModelOptions) *Model {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Model{
		opts:    opts,
		siteMap: DefaultSiteMap(),
	}
}

// Apply replaces the widget list and topology with a bulk-load result.
// An empty widget list falls back to the default dashboard.
func (m *Model) Apply(result LoadResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(result.SiteMap) > 0 {
		m.siteMap = result.SiteMap
	} else {
		m.siteMap = DefaultSiteMap()
	}
	if len(result.Widgets) > 0 {
		m.widgets = normalizeWidgets(result.Widgets)
	} else {
		m.widgets = DefaultWidgets()
	}
	m.message = result.Message
}

func normalizeWidgets(widgets []Widget) []Widget {
	out := make([]Widget, len(widgets))
	copy(out, widgets)
	for i := range out {
		if !out[i].TimeRange.Valid() {
			out[i].TimeRange = DefaultTimeRange
		}
		out[i].ChartType = ChartTypeFor(out[i].Metric)
	}
	return out
}

// Widgets returns a copy of the ordered list.
func (m *Model) Widgets() []Widget {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Widget, len(m.widgets))
	copy(out, m.widgets)
	return out
}

// Widget looks a widget up by id.
func (m *Model) Widget(id string) (Widget, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.widgets {
		if w.ID == id {
			return w, true
		}
	}
	return Widget{}, false
}

// SiteMap returns the current topology.
func (m *Model) SiteMap() SiteMap {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(SiteMap, len(m.siteMap))
	for site, devices := range m.siteMap {
		out[site] = append([]string(nil), devices...)
	}
	return out
}

// Message returns the status line from the last bulk load.
func (m *Model) Message() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.message
}

// AddWidget validates the form, appends the widget, and persists the
// full list. The created widget is returned so callers can start its
// refresh engine.
func (m *Model) AddWidget(ctx context.Context, form WidgetForm) (Widget, error) {
	widget := form.build(m.opts.Clock())
	if !ValidMetric(widget.Metric) {
		return Widget{}, errInvalidMetric
	}
	if !widget.TimeRange.Valid() {
		return Widget{}, errInvalidRange
	}
	if m.opts.Validator != nil {
		if err := m.opts.Validator.Validate(m.SiteMap(), widget); err != nil {
			return Widget{}, err
		}
	}
	m.mu.Lock()
	m.widgets = append(m.widgets, widget)
	snapshot := append([]Widget(nil), m.widgets...)
	m.mu.Unlock()

	m.persist(ctx, snapshot)
	m.opts.Telemetry.Record(ctx, "dashboard.widget.add", map[string]any{
		"widget_id": widget.ID,
		"site":      widget.Site,
		"metric":    string(widget.Metric),
	})
	return widget, nil
}

// RemoveWidget filters the widget out by id and persists the remainder.
func (m *Model) RemoveWidget(ctx context.Context, id string) error {
	m.mu.Lock()
	kept := m.widgets[:0:0]
	found := false
	for _, w := range m.widgets {
		if w.ID == id {
			found = true
			continue
		}
		kept = append(kept, w)
	}
	if !found {
		m.mu.Unlock()
		return errUnknownWidget
	}
	m.widgets = kept
	snapshot := append([]Widget(nil), m.widgets...)
	m.mu.Unlock()

	m.persist(ctx, snapshot)
	m.opts.Telemetry.Record(ctx, "dashboard.widget.remove", map[string]any{"widget_id": id})
	return nil
}

// SetTimeRange updates one widget's lookback window and persists the
// list. The updated widget is returned so only its own engine refetches.
func (m *Model) SetTimeRange(ctx context.Context, id string, r TimeRange) (Widget, error) {
	if !r.Valid() {
		return Widget{}, errInvalidRange
	}
	m.mu.Lock()
	var updated Widget
	found := false
	for i := range m.widgets {
		if m.widgets[i].ID == id {
			m.widgets[i].TimeRange = r
			updated = m.widgets[i]
			found = true
			break
		}
	}
	if !found {
		m.mu.Unlock()
		return Widget{}, errUnknownWidget
	}
	snapshot := append([]Widget(nil), m.widgets...)
	m.mu.Unlock()

	m.persist(ctx, snapshot)
	m.opts.Telemetry.Record(ctx, "dashboard.widget.time_range", map[string]any{
		"widget_id": id,
		"hours":     int(r),
	})
	return updated, nil
}

// persist pushes the full list to the backend. Persistence failures do
// not undo the local mutation; they are recorded and the next mutation
// retries implicitly by sending the whole list again.
func (m *Model) persist(ctx context.Context, widgets []Widget) {
	if m.opts.Backend == nil {
		return
	}
	if err := m.opts.Backend.SaveDashboard(ctx, widgets); err != nil {
		m.opts.Telemetry.Record(ctx, "dashboard.persist.error", map[string]any{
			"error": err.Error(),
			"count": len(widgets),
		})
	}
}

// WidgetForm is the widget-creation state. Device lists are site-scoped,
// so changing the site resets the device selection.
type WidgetForm struct {
	Title     string
	Site      string
	Device    string
	Metric    Metric
	TimeRange TimeRange
}

// NewWidgetForm returns the form defaults used by the creation panel.
func NewWidgetForm() WidgetForm {
	return WidgetForm{
		Title:     "New Analytics",
		Site:      AllSites,
		Device:    AllDevices,
		Metric:    MetricClients,
		TimeRange: DefaultTimeRange,
	}
}

// SetSite selects a site and invalidates the stale device selection.
func (f *WidgetForm) SetSite(site string) {
	f.Site = site
	f.Device = AllDevices
}

// SetDevice selects a device within the current site.
func (f *WidgetForm) SetDevice(device string) {
	f.Device = device
}

// SetMetric selects a metric; the chart type follows it.
func (f *WidgetForm) SetMetric(metric Metric) {
	f.Metric = metric
}

func (f WidgetForm) build(now time.Time) Widget {
	site := f.Site
	if site == "" {
		site = AllSites
	}
	device := f.Device
	if device == "" {
		device = AllDevices
	}
	return Widget{
		ID:        NewWidgetID(now),
		Title:     f.Title,
		Site:      site,
		Device:    device,
		Metric:    f.Metric,
		ChartType: ChartTypeFor(f.Metric),
		TimeRange: f.TimeRange,
	}
}
