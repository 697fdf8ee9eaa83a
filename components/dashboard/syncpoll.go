package dashboard

import (
	"context"
	"sync"
	"time"
)

// SyncPollerOptions configures the sync-status poller.
type SyncPollerOptions struct {
	Backend   Backend
	Interval  time.Duration
	Telemetry Telemetry
	// OnIdle fires once each time polling observes the job finish. The
	// runtime uses it to bump the refresh generation so every widget
	// reloads against the freshly synced data.
	OnIdle func(status SyncStatus)
}

// SyncPoller watches the asynchronous cloud-sync job. It has two states:
// Idle, where at most one-shot probes run, and Polling, where status is
// requested on a fixed cadence until the job reports inactive and no
// external-loading flag is set.
type SyncPoller struct {
	opts SyncPollerOptions

	mu       sync.Mutex
	status   SyncStatus
	polling  bool
	external bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSyncPoller builds an idle poller.
func NewSyncPoller(opts SyncPollerOptions) *SyncPoller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultSyncPollInterval
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &SyncPoller{opts: opts}
}

// Probe issues a single status request without entering Polling. It is
// how the dashboard recovers the last terminal message after a reload.
func (p *SyncPoller) Probe(ctx context.Context) (SyncStatus, error) {
	status, err := p.opts.Backend.SyncStatus(ctx)
	if err != nil {
		return p.Status(), err
	}
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()
	return status, nil
}

// Activate enters Polling. Calling it while already polling is a no-op;
// the loop runs until the job reports inactive with the external flag
// clear, or until ctx is cancelled.
func (p *SyncPoller) Activate(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.polling {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.polling = true
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
}

// Stop cancels an active polling loop.
func (p *SyncPoller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

// SetExternalBusy marks a caller-owned operation (such as the bulk load
// request itself) in flight. While set, the poller stays in Polling and
// the trigger control remains disabled.
func (p *SyncPoller) SetExternalBusy(busy bool) {
	p.mu.Lock()
	p.external = busy
	p.mu.Unlock()
}

// Busy reports whether the sync trigger must stay disabled, preventing
// duplicate job submissions.
func (p *SyncPoller) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polling || p.external
}

// Status returns the latest observed snapshot.
func (p *SyncPoller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// indeterminateProgress is shown while the job has not reported a file
// total yet.
const indeterminateProgress = 0.05

// Progress returns the completion ratio in [0,1].
func (p *SyncPoller) Progress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status.FilesTotal <= 0 {
		if p.status.IsSyncing {
			return indeterminateProgress
		}
		return 0
	}
	ratio := float64(p.status.FilesDone) / float64(p.status.FilesTotal)
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

func (p *SyncPoller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.polling = false
			p.cancel = nil
			p.mu.Unlock()
			return
		case <-ticker.C:
			if p.step(ctx) {
				return
			}
		}
	}
}

// step polls once and reports whether the loop should stop.
func (p *SyncPoller) step(ctx context.Context) bool {
	status, err := p.opts.Backend.SyncStatus(ctx)
	if err != nil {
		// Transient failures self-heal on the next tick.
		p.opts.Telemetry.Record(ctx, "dashboard.sync.poll_error", map[string]any{"error": err.Error()})
		return false
	}
	p.mu.Lock()
	p.status = status
	stop := !status.IsSyncing && !p.external
	if stop {
		p.polling = false
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
	}
	p.mu.Unlock()
	if stop {
		p.opts.Telemetry.Record(ctx, "dashboard.sync.idle", map[string]any{"message": status.LastMessage})
		if p.opts.OnIdle != nil {
			p.opts.OnIdle(status)
		}
	}
	return stop
}
