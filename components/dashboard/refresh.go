package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// EngineOptions configures a widget refresh engine.
type EngineOptions struct {
	Backend   Backend
	Summaries SummarySink
	Broadcast *Broadcaster
	Interval  time.Duration
	Telemetry Telemetry
	Clock     Clock
}

// Engine keeps one widget's series consistent with its current tuple.
// Three triggers cause a fetch, each independently valid: a tuple
// change, the wall-clock interval, and a refresh-generation bump shared
// by all widgets. Fetches are tagged with a sequence number and a
// completion is dropped whenever a newer fetch has been issued, so the
// displayed series always belongs to the latest trigger.
type Engine struct {
	opts EngineOptions

	issued atomic.Uint64

	mu        sync.RWMutex
	widget    Widget
	rows      []Row
	loading   bool
	lastErr   error
	fetchedAt time.Time

	updates chan Widget
	kick    chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

// EngineSnapshot is a point-in-time copy of the engine state.
type EngineSnapshot struct {
	Widget    Widget
	Rows      []Row
	Loading   bool
	LastError error
	FetchedAt time.Time
}

// NewEngine builds an engine for the widget. Start must be called before
// any data is fetched.
func NewEngine(widget Widget, opts EngineOptions) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = DefaultRefreshInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Engine{
		opts:    opts,
		widget:  widget,
		updates: make(chan Widget, 1),
		kick:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Start launches the refresh loop and issues the initial fetch. The loop
// stops when ctx is cancelled or Stop is called.
func (e *Engine) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	go e.run(ctx)
}

// Stop tears the loop down. It is safe to call more than once; an
// engine belonging to a removed widget must be stopped so no orphaned
// timer keeps polling the backend. The mutex must not be held across
// the done wait, the run loop takes it while finishing a fetch.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-e.done
}

// Update replaces the widget tuple. Pending updates are coalesced: only
// the latest tuple matters, it triggers exactly one fetch for this
// widget and none for its siblings.
func (e *Engine) Update(widget Widget) {
	for {
		select {
		case e.updates <- widget:
			return
		default:
			select {
			case <-e.updates:
			default:
			}
		}
	}
}

// Refresh requests an immediate out-of-band fetch.
func (e *Engine) Refresh() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

// Snapshot returns the current widget, series, and flags.
func (e *Engine) Snapshot() EngineSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return EngineSnapshot{
		Widget:    e.widget,
		Rows:      append([]Row(nil), e.rows...),
		Loading:   e.loading,
		LastError: e.lastErr,
		FetchedAt: e.fetchedAt,
	}
}

// Widget returns the tuple the engine currently serves.
func (e *Engine) Widget() Widget {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.widget
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	var gens <-chan uint64
	if e.opts.Broadcast != nil {
		ch, cancel := e.opts.Broadcast.Subscribe()
		defer cancel()
		gens = ch
	}

	ticker := time.NewTicker(e.opts.Interval)
	defer ticker.Stop()

	e.dispatch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.dispatch(ctx)
		case widget := <-e.updates:
			if e.applyUpdate(widget) {
				e.dispatch(ctx)
			}
		case <-e.kick:
			e.dispatch(ctx)
		case _, ok := <-gens:
			if !ok {
				gens = nil
				continue
			}
			e.dispatch(ctx)
		}
	}
}

// applyUpdate stores the new tuple and reports whether it differs from
// the current one. Identical tuples do not refetch.
func (e *Engine) applyUpdate(widget Widget) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	changed := widget.Tuple() != e.widget.Tuple()
	e.widget = widget
	return changed
}

func (e *Engine) dispatch(ctx context.Context) {
	seq := e.issued.Add(1)
	e.mu.Lock()
	e.loading = true
	widget := e.widget
	e.mu.Unlock()
	go e.fetch(ctx, seq, widget)
}

func (e *Engine) fetch(ctx context.Context, seq uint64, widget Widget) {
	result, err := e.opts.Backend.Analyze(ctx, AnalyzeRequest{
		Site:   widget.Site,
		Device: widget.Device,
		Metric: widget.Metric,
		Hours:  widget.TimeRange.Hours(),
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.issued.Load() {
		// A newer fetch owns the widget state now; this result is stale.
		return
	}
	e.loading = false
	if err != nil {
		// Prior data stays in place; the fault never reaches siblings.
		e.lastErr = err
		e.opts.Telemetry.Record(ctx, "dashboard.widget.fetch_error", map[string]any{
			"widget_id": widget.ID,
			"error":     err.Error(),
		})
		return
	}
	e.lastErr = nil
	if result.Rows == nil {
		result.Rows = []Row{}
	}
	e.rows = result.Rows
	e.fetchedAt = e.opts.Clock()
	if result.Summary != nil && e.opts.Summaries != nil {
		summary := *result.Summary
		if summary.Site == "" {
			if widget.Site == AllSites {
				summary.Site = GlobalOverview
			} else {
				summary.Site = widget.Site
			}
		}
		e.opts.Summaries.Publish(summary)
	}
}
