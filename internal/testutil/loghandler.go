package testutil

import (
	"context"
	"log/slog"
	"sync"
)

var _ slog.Handler = (*RecordHandler)(nil)

// RecordHandler keeps every record it handles for later inspection.
type RecordHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func NewRecordHandler() *RecordHandler { return &RecordHandler{} }

// Logger returns a debug level logger writing into h.
func (h *RecordHandler) Logger() *slog.Logger { return slog.New(h) }

func (h *RecordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *RecordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *RecordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *RecordHandler) WithGroup(string) slog.Handler      { return h }

// Count returns the number of records logged at exactly lvl.
func (h *RecordHandler) Count(lvl slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	var n int
	for _, r := range h.records {
		if r.Level == lvl {
			n++
		}
	}
	return n
}

// Messages returns the messages logged at exactly lvl.
func (h *RecordHandler) Messages(lvl slog.Level) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var msgs []string
	for _, r := range h.records {
		if r.Level == lvl {
			msgs = append(msgs, r.Message)
		}
	}
	return msgs
}

func (h *RecordHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}
