package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RuntimeOptions configures the dashboard runtime.
type RuntimeOptions struct {
	Backend         Backend
	Sessions        SessionStore
	Validator       *ConfigValidator
	Telemetry       Telemetry
	RefreshInterval time.Duration
	SyncInterval    time.Duration
	Clock           Clock
}

// Runtime is the assembled dashboard: the widget model, one refresh
// engine per widget, the shared summary board, the refresh-generation
// broadcaster, and the sync-status poller. Engines are created and torn
// down as widgets come and go; Stop disposes everything
// deterministically so no timer outlives the dashboard.
type Runtime struct {
	opts RuntimeOptions

	Model     *Model
	Board     *SummaryBoard
	Broadcast *Broadcaster
	Sync      *SyncPoller

	mu      sync.Mutex
	engines map[string]*Engine
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewRuntime builds a runtime with safe defaults.
func NewRuntime(opts RuntimeOptions) *Runtime {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.Validator == nil {
		opts.Validator = NewConfigValidator()
	}
	r := &Runtime{
		opts:      opts,
		Board:     NewSummaryBoard(),
		Broadcast: NewBroadcaster(),
		engines:   make(map[string]*Engine),
	}
	r.Model = NewModel(ModelOptions{
		Backend:   opts.Backend,
		Validator: opts.Validator,
		Telemetry: opts.Telemetry,
		Clock:     opts.Clock,
	})
	r.Sync = NewSyncPoller(SyncPollerOptions{
		Backend:   opts.Backend,
		Interval:  opts.SyncInterval,
		Telemetry: opts.Telemetry,
		OnIdle: func(SyncStatus) {
			// The bulk sync just finished: reload every widget in
			// lockstep against the fresh data.
			r.Broadcast.Bump()
		},
	})
	return r
}

// Start performs the bulk load, starts one refresh engine per widget,
// and begins watching the sync job the load triggered.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return fmt.Errorf("dashboard: runtime already started")
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.started = true
	r.mu.Unlock()

	if err := r.load(r.ctx); err != nil {
		return err
	}
	r.Sync.Activate(r.ctx)
	return nil
}

// Reload re-runs the bulk load (which triggers a cloud sync server-side)
// and reconciles engines with the returned widget list. The external
// flag keeps the trigger control disabled for the duration of the call.
func (r *Runtime) Reload(ctx context.Context) error {
	r.Sync.SetExternalBusy(true)
	defer r.Sync.SetExternalBusy(false)
	if err := r.load(ctx); err != nil {
		return err
	}
	r.Sync.Activate(r.runCtx())
	return nil
}

func (r *Runtime) load(ctx context.Context) error {
	result, err := r.opts.Backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("dashboard: bulk load: %w", err)
	}
	r.Model.Apply(result)
	r.reconcileEngines()
	r.opts.Telemetry.Record(ctx, "dashboard.load", map[string]any{
		"widgets": len(r.Model.Widgets()),
		"sites":   len(r.Model.SiteMap()),
	})
	return nil
}

// AddWidget creates a widget through the model and starts its engine.
func (r *Runtime) AddWidget(ctx context.Context, form WidgetForm) (Widget, error) {
	widget, err := r.Model.AddWidget(ctx, form)
	if err != nil {
		return Widget{}, err
	}
	r.startEngine(widget)
	return widget, nil
}

// RemoveWidget removes the widget and tears its engine down.
func (r *Runtime) RemoveWidget(ctx context.Context, id string) error {
	if err := r.Model.RemoveWidget(ctx, id); err != nil {
		return err
	}
	r.mu.Lock()
	engine, ok := r.engines[id]
	delete(r.engines, id)
	r.mu.Unlock()
	if ok {
		engine.Stop()
	}
	return nil
}

// SetTimeRange updates one widget's lookback and retriggers only that
// widget's fetch.
func (r *Runtime) SetTimeRange(ctx context.Context, id string, timeRange TimeRange) error {
	widget, err := r.Model.SetTimeRange(ctx, id, timeRange)
	if err != nil {
		return err
	}
	r.mu.Lock()
	engine, ok := r.engines[id]
	r.mu.Unlock()
	if ok {
		engine.Update(widget)
	}
	return nil
}

// Engine returns the refresh engine for a widget id.
func (r *Runtime) Engine(id string) (*Engine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	engine, ok := r.engines[id]
	return engine, ok
}

// Snapshots returns engine snapshots in widget-list order.
func (r *Runtime) Snapshots() []EngineSnapshot {
	widgets := r.Model.Widgets()
	out := make([]EngineSnapshot, 0, len(widgets))
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range widgets {
		if engine, ok := r.engines[w.ID]; ok {
			out = append(out, engine.Snapshot())
		}
	}
	return out
}

// Stop tears down every engine and the sync poller.
func (r *Runtime) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	engines := make([]*Engine, 0, len(r.engines))
	for _, engine := range r.engines {
		engines = append(engines, engine)
	}
	r.engines = make(map[string]*Engine)
	r.started = false
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, engine := range engines {
		engine.Stop()
	}
	r.Sync.Stop()
}

func (r *Runtime) runCtx() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// reconcileEngines aligns running engines with the model's widget list:
// new widgets gain engines, removed widgets lose them, surviving ones
// receive their (possibly changed) tuple.
func (r *Runtime) reconcileEngines() {
	widgets := r.Model.Widgets()
	want := make(map[string]Widget, len(widgets))
	for _, w := range widgets {
		want[w.ID] = w
	}

	r.mu.Lock()
	var stale []*Engine
	for id, engine := range r.engines {
		if _, ok := want[id]; !ok {
			stale = append(stale, engine)
			delete(r.engines, id)
		}
	}
	r.mu.Unlock()
	for _, engine := range stale {
		engine.Stop()
	}

	for _, w := range widgets {
		r.mu.Lock()
		engine, ok := r.engines[w.ID]
		r.mu.Unlock()
		if ok {
			engine.Update(w)
			continue
		}
		r.startEngine(w)
	}
}

func (r *Runtime) startEngine(widget Widget) {
	engine := NewEngine(widget, EngineOptions{
		Backend:   r.opts.Backend,
		Summaries: r.Board,
		Broadcast: r.Broadcast,
		Interval:  r.opts.RefreshInterval,
		Telemetry: r.opts.Telemetry,
		Clock:     r.opts.Clock,
	})
	r.mu.Lock()
	r.engines[widget.ID] = engine
	ctx := r.ctx
	r.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	engine.Start(ctx)
}
