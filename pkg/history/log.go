package history

import (
	"context"
	"sync"

	"github.com/aretw0/metta/pkg/ports"
)

// DefaultMaxEntries bounds the log when no limit is configured.
const DefaultMaxEntries = 1000

// Log is the ordered, append-only history of the session. It is bounded: once
// full, the oldest entries are dropped. It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	max     int
	entries []string
	unsaved []string
}

// NewLog creates a log holding at most max entries (DefaultMaxEntries if max <= 0).
func NewLog(max int) *Log {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Log{max: max}
}

// Seed loads previously persisted entries. They are not flushed again.
func (l *Log) Seed(entries []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = bound(append(append([]string(nil), entries...), l.entries...), l.max)
}

// Append records an entry.
func (l *Log) Append(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = bound(append(l.entries, entry), l.max)
	l.unsaved = bound(append(l.unsaved, entry), l.max)
}

// Entries returns a copy of the log, oldest first.
func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Unsaved returns the entries appended since the last flush.
func (l *Log) Unsaved() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.unsaved...)
}

// Flush appends the unsaved entries to store.
func (l *Log) Flush(ctx context.Context, store ports.HistoryStore) error {
	l.mu.Lock()
	pending := append([]string(nil), l.unsaved...)
	l.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	if err := store.Append(ctx, pending...); err != nil {
		return err
	}

	l.mu.Lock()
	l.unsaved = l.unsaved[min(len(pending), len(l.unsaved)):]
	l.mu.Unlock()
	return nil
}

func bound(entries []string, max int) []string {
	if len(entries) <= max {
		return entries
	}
	return append([]string(nil), entries[len(entries)-max:]...)
}
