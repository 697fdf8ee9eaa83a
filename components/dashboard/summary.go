package dashboard

import (
	"sync"
	"time"
)

// SummarySink receives summary sub-payloads surfaced by widget fetches.
type SummarySink interface {
	Publish(summary Summary)
}

// SummaryBoard is the shared summary slot. Any widget's fetch may
// overwrite it; the last writer wins, consistent with the rest of the
// refresh model.
type SummaryBoard struct {
	mu        sync.RWMutex
	current   Summary
	present   bool
	updatedAt time.Time
	clock     Clock
}

// NewSummaryBoard builds an empty board.
func NewSummaryBoard() *SummaryBoard {
	return &SummaryBoard{clock: time.Now}
}

// Publish replaces the board contents wholesale.
func (b *SummaryBoard) Publish(summary Summary) {
	if summary.Site == "" {
		summary.Site = GlobalOverview
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = summary
	b.present = true
	b.updatedAt = b.clock()
}

// Current returns the latest summary, if one has been published.
func (b *SummaryBoard) Current() (Summary, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current, b.present
}

// UpdatedAt reports when the board last changed.
func (b *SummaryBoard) UpdatedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updatedAt
}
