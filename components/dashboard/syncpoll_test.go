package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSyncPollerStopsWhenJobGoesIdle(t *testing.T) {
	var mu sync.Mutex
	remaining := 2
	backend := &fakeBackend{}
	backend.statusFn = func() (SyncStatus, error) {
		mu.Lock()
		defer mu.Unlock()
		if remaining > 0 {
			remaining--
			return SyncStatus{IsSyncing: true, CurrentStep: "download"}, nil
		}
		return SyncStatus{IsSyncing: false, LastMessage: "sync complete"}, nil
	}

	idle := make(chan SyncStatus, 1)
	poller := NewSyncPoller(SyncPollerOptions{
		Backend:  backend,
		Interval: 10 * time.Millisecond,
		OnIdle:   func(status SyncStatus) { idle <- status },
	})

	poller.Activate(context.Background())
	if !poller.Busy() {
		t.Fatalf("expected Busy while polling")
	}

	select {
	case status := <-idle:
		if status.LastMessage != "sync complete" {
			t.Fatalf("unexpected terminal status: %#v", status)
		}
	case <-time.After(time.Second):
		t.Fatalf("poller never reported idle")
	}

	waitUntil(t, time.Second, func() bool { return !poller.Busy() })

	backend.mu.Lock()
	calls := backend.statusCalls
	backend.mu.Unlock()
	time.Sleep(60 * time.Millisecond)
	backend.mu.Lock()
	after := backend.statusCalls
	backend.mu.Unlock()
	if after != calls {
		t.Fatalf("poller kept requesting status after idle: %d -> %d", calls, after)
	}
}

func TestSyncPollerActivateWhilePollingIsNoop(t *testing.T) {
	backend := &fakeBackend{}
	backend.statusFn = func() (SyncStatus, error) {
		return SyncStatus{IsSyncing: true}, nil
	}
	poller := NewSyncPoller(SyncPollerOptions{Backend: backend, Interval: 10 * time.Millisecond})
	poller.Activate(context.Background())
	poller.Activate(context.Background())
	defer poller.Stop()

	waitUntil(t, time.Second, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return backend.statusCalls >= 3
	})
	// A second loop would double the request rate; a rough upper bound
	// catches that.
	time.Sleep(100 * time.Millisecond)
	backend.mu.Lock()
	calls := backend.statusCalls
	backend.mu.Unlock()
	if calls > 30 {
		t.Fatalf("suspiciously many status calls, second loop likely running: %d", calls)
	}
}

func TestSyncPollerExternalBusyKeepsPolling(t *testing.T) {
	backend := &fakeBackend{}
	backend.statusFn = func() (SyncStatus, error) {
		return SyncStatus{IsSyncing: false}, nil
	}
	poller := NewSyncPoller(SyncPollerOptions{Backend: backend, Interval: 10 * time.Millisecond})
	poller.SetExternalBusy(true)
	poller.Activate(context.Background())
	defer poller.Stop()

	time.Sleep(60 * time.Millisecond)
	if !poller.Busy() {
		t.Fatalf("expected Busy while external flag is set")
	}

	poller.SetExternalBusy(false)
	waitUntil(t, time.Second, func() bool { return !poller.Busy() })
}

func TestSyncPollerSurvivesTransientErrors(t *testing.T) {
	var mu sync.Mutex
	failures := 2
	backend := &fakeBackend{}
	backend.statusFn = func() (SyncStatus, error) {
		mu.Lock()
		defer mu.Unlock()
		if failures > 0 {
			failures--
			return SyncStatus{}, errors.New("status unavailable")
		}
		return SyncStatus{IsSyncing: false, LastMessage: "done"}, nil
	}
	poller := NewSyncPoller(SyncPollerOptions{Backend: backend, Interval: 10 * time.Millisecond})
	poller.Activate(context.Background())

	waitUntil(t, time.Second, func() bool { return !poller.Busy() })
	if got := poller.Status().LastMessage; got != "done" {
		t.Fatalf("expected terminal status recorded, got %q", got)
	}
}

func TestSyncPollerProbeDoesNotEnterPolling(t *testing.T) {
	backend := &fakeBackend{}
	backend.statusFn = func() (SyncStatus, error) {
		return SyncStatus{IsSyncing: false, LastMessage: "last sync 04:00"}, nil
	}
	poller := NewSyncPoller(SyncPollerOptions{Backend: backend})
	status, err := poller.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if status.LastMessage != "last sync 04:00" {
		t.Fatalf("unexpected probe status: %#v", status)
	}
	if poller.Busy() {
		t.Fatalf("Probe must not enter Polling")
	}
}

func TestSyncPollerProgress(t *testing.T) {
	poller := NewSyncPoller(SyncPollerOptions{Backend: &fakeBackend{}})
	if got := poller.Progress(); got != 0 {
		t.Fatalf("idle progress = %v, want 0", got)
	}
	poller.status = SyncStatus{IsSyncing: true}
	if got := poller.Progress(); got != indeterminateProgress {
		t.Fatalf("indeterminate progress = %v, want %v", got, indeterminateProgress)
	}
	poller.status = SyncStatus{IsSyncing: true, FilesTotal: 8, FilesDone: 2}
	if got := poller.Progress(); got != 0.25 {
		t.Fatalf("progress = %v, want 0.25", got)
	}
	poller.status = SyncStatus{IsSyncing: true, FilesTotal: 4, FilesDone: 9}
	if got := poller.Progress(); got != 1 {
		t.Fatalf("progress clamps at 1, got %v", got)
	}
}
