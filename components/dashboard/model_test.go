package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeBackend struct {
	mu           sync.Mutex
	loadFn       func() (LoadResult, error)
	analyzeFn    func(req AnalyzeRequest) (AnalyzeResult, error)
	statusFn     func() (SyncStatus, error)
	summaryFn    func(site string) (Summary, error)
	saved        [][]Widget
	analyzeCalls []AnalyzeRequest
	statusCalls  int
}

func (f *fakeBackend) Load(context.Context) (LoadResult, error) {
	if f.loadFn != nil {
		return f.loadFn()
	}
	return LoadResult{SiteMap: DefaultSiteMap()}, nil
}

func (f *fakeBackend) Analyze(_ context.Context, req AnalyzeRequest) (AnalyzeResult, error) {
	f.mu.Lock()
	f.analyzeCalls = append(f.analyzeCalls, req)
	f.mu.Unlock()
	if f.analyzeFn != nil {
		return f.analyzeFn(req)
	}
	return AnalyzeResult{Rows: []Row{}}, nil
}

func (f *fakeBackend) SyncStatus(context.Context) (SyncStatus, error) {
	f.mu.Lock()
	f.statusCalls++
	f.mu.Unlock()
	if f.statusFn != nil {
		return f.statusFn()
	}
	return SyncStatus{}, nil
}

func (f *fakeBackend) SiteSummary(_ context.Context, site string) (Summary, error) {
	if f.summaryFn != nil {
		return f.summaryFn(site)
	}
	return Summary{Site: site}, nil
}

func (f *fakeBackend) SaveDashboard(_ context.Context, widgets []Widget) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, append([]Widget(nil), widgets...))
	return nil
}

func (f *fakeBackend) analyzeCallsFor(site string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.analyzeCalls {
		if call.Site == site {
			n++
		}
	}
	return n
}

func (f *fakeBackend) lastSaved() ([]Widget, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) == 0 {
		return nil, false
	}
	return f.saved[len(f.saved)-1], true
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestWidgetFormSiteChangeResetsDevice(t *testing.T) {
	form := NewWidgetForm()
	form.SetSite("Site A")
	form.SetDevice("D1")
	if form.Device != "D1" {
		t.Fatalf("expected device D1, got %s", form.Device)
	}
	form.SetSite("Site B")
	if form.Device != AllDevices {
		t.Fatalf("expected device reset to %q, got %q", AllDevices, form.Device)
	}
}

func TestWidgetFormMetricDerivesChartType(t *testing.T) {
	form := NewWidgetForm()
	form.SetMetric(MetricHealth)
	w := form.build(time.Now())
	if w.ChartType != ChartPie {
		t.Fatalf("expected pie chart for health, got %s", w.ChartType)
	}
	form.SetMetric(MetricClients)
	w = form.build(time.Now())
	if w.ChartType != ChartArea {
		t.Fatalf("expected area chart for clients, got %s", w.ChartType)
	}
}

func TestAddThenRemoveRestoresPersistedList(t *testing.T) {
	backend := &fakeBackend{}
	model := NewModel(ModelOptions{Backend: backend})
	original := []Widget{
		{ID: "w1", Site: AllSites, Device: AllDevices, Metric: MetricClients, TimeRange: 24},
		{ID: "w2", Site: AllSites, Device: AllDevices, Metric: MetricHealth, TimeRange: 24},
	}
	model.Apply(LoadResult{SiteMap: DefaultSiteMap(), Widgets: original})

	form := NewWidgetForm()
	added, err := model.AddWidget(context.Background(), form)
	if err != nil {
		t.Fatalf("AddWidget returned error: %v", err)
	}
	if err := model.RemoveWidget(context.Background(), added.ID); err != nil {
		t.Fatalf("RemoveWidget returned error: %v", err)
	}

	saved, ok := backend.lastSaved()
	if !ok {
		t.Fatalf("expected dashboard persisted")
	}
	if len(saved) != len(original) {
		t.Fatalf("expected %d widgets, got %d", len(original), len(saved))
	}
	for i := range original {
		if saved[i].ID != original[i].ID {
			t.Fatalf("expected widget %s at position %d, got %s", original[i].ID, i, saved[i].ID)
		}
	}
}

func TestRemoveUnknownWidgetFails(t *testing.T) {
	model := NewModel(ModelOptions{Backend: &fakeBackend{}})
	model.Apply(LoadResult{})
	if err := model.RemoveWidget(context.Background(), "missing"); !errors.Is(err, errUnknownWidget) {
		t.Fatalf("expected errUnknownWidget, got %v", err)
	}
}

func TestApplyFallsBackToDefaults(t *testing.T) {
	model := NewModel(ModelOptions{})
	model.Apply(LoadResult{})
	widgets := model.Widgets()
	if len(widgets) != 1 || widgets[0].Metric != MetricClients {
		t.Fatalf("expected default network trend widget, got %#v", widgets)
	}
	if _, ok := model.SiteMap()[AllSites]; !ok {
		t.Fatalf("expected synthetic all-sites entry")
	}
}

func TestApplyNormalizesChartTypeAndRange(t *testing.T) {
	model := NewModel(ModelOptions{})
	model.Apply(LoadResult{Widgets: []Widget{
		{ID: "w1", Metric: MetricState, ChartType: ChartArea, TimeRange: 7},
	}})
	w := model.Widgets()[0]
	if w.ChartType != ChartPie {
		t.Fatalf("expected chart type derived from metric, got %s", w.ChartType)
	}
	if w.TimeRange != DefaultTimeRange {
		t.Fatalf("expected invalid range replaced with default, got %d", w.TimeRange)
	}
}

func TestSetTimeRangeRejectsUnknownBucket(t *testing.T) {
	model := NewModel(ModelOptions{Backend: &fakeBackend{}})
	model.Apply(LoadResult{Widgets: []Widget{{ID: "w1", Metric: MetricClients, TimeRange: 24}}})
	if _, err := model.SetTimeRange(context.Background(), "w1", 7); !errors.Is(err, errInvalidRange) {
		t.Fatalf("expected errInvalidRange, got %v", err)
	}
}

func TestSetTimeRangePersistsFullList(t *testing.T) {
	backend := &fakeBackend{}
	model := NewModel(ModelOptions{Backend: backend})
	model.Apply(LoadResult{Widgets: []Widget{
		{ID: "w1", Metric: MetricClients, TimeRange: 24},
		{ID: "w2", Metric: MetricHealth, TimeRange: 24},
	}})
	updated, err := model.SetTimeRange(context.Background(), "w2", 168)
	if err != nil {
		t.Fatalf("SetTimeRange returned error: %v", err)
	}
	if updated.TimeRange != 168 {
		t.Fatalf("expected updated widget returned, got %#v", updated)
	}
	saved, ok := backend.lastSaved()
	if !ok || len(saved) != 2 {
		t.Fatalf("expected full list persisted, got %#v", saved)
	}
	if saved[1].TimeRange != 168 || saved[0].TimeRange != 24 {
		t.Fatalf("expected only w2 updated, got %#v", saved)
	}
}
