package internal

import (
	"fmt"
	"sync"
	"time"
)

// ConversationLog is the ordered, append-only record of one dataset session.
// Entries are copied on the way in and on the way out.
type ConversationLog struct {
	mu      sync.RWMutex
	entries []MessageEntry
	now     func() time.Time
}

// NewConversationLog creates an empty log
func NewConversationLog() *ConversationLog {
	return &ConversationLog{
		entries: make([]MessageEntry, 0),
		now:     time.Now,
	}
}

// Append adds an entry at the end of the log and returns its index
func (l *ConversationLog) Append(entry MessageEntry) (int, error) {
	if entry.Role != RoleUser && entry.Role != RoleBot {
		return -1, fmt.Errorf("invalid message role %q", entry.Role)
	}

	e := entry.Clone()
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	return len(l.entries) - 1, nil
}

// Entries returns a copy of every entry in append order
func (l *ConversationLog) Entries() []MessageEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]MessageEntry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Clone()
	}
	return out
}

// At returns a copy of the entry at index i
func (l *ConversationLog) At(i int) (MessageEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if i < 0 || i >= len(l.entries) {
		return MessageEntry{}, false
	}
	return l.entries[i].Clone(), true
}

// Len returns the number of entries
func (l *ConversationLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
