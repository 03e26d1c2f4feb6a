package backup

import (
	"sync"
	"time"
)

// DefaultHistorySize is the number of backups remembered when no size is configured.
const DefaultHistorySize = 4

// Record describes a completed backup.
type Record struct {
	ID         string
	CreatedAt  time.Time
	PostsCount int
	LeadsCount int
	Filename   string
	Size       int64
	UploadedTo string
}

// History is a bounded list of recent backups. When full, adding a record
// evicts the oldest one.
type History struct {
	mu      sync.Mutex
	records []Record // ring storage
	start   int      // index of the oldest record
	count   int
}

// NewHistory creates a history holding at most size records. Sizes below 1 are raised to 1.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{records: make([]Record, size)}
}

// Add stores r as the newest record.
func (h *History) Add(r Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	capacity := len(h.records)
	if h.count < capacity {
		h.records[(h.start+h.count)%capacity] = r
		h.count++
		return
	}
	h.records[h.start] = r
	h.start = (h.start + 1) % capacity
}

// List returns the stored records, newest first.
func (h *History) List() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Record, 0, h.count)
	capacity := len(h.records)
	for i := h.count - 1; i >= 0; i-- {
		out = append(out, h.records[(h.start+i)%capacity])
	}
	return out
}

// Len returns the number of stored records.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Cap returns the maximum number of records kept.
func (h *History) Cap() int {
	return len(h.records)
}

// Clear removes every record.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clear(h.records)
	h.start = 0
	h.count = 0
}
