package backup

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory(4)
	for i := 1; i <= 6; i++ {
		h.Add(Record{ID: strconv.Itoa(i)})
	}

	assert.Equal(t, 4, h.Len())
	assert.Equal(t, []string{"6", "5", "4", "3"}, ids(h.List()))
}

func TestHistory_PartiallyFilled(t *testing.T) {
	h := NewHistory(4)
	h.Add(Record{ID: "a"})
	h.Add(Record{ID: "b"})

	assert.Equal(t, []string{"b", "a"}, ids(h.List()))
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory(2)
	h.Add(Record{ID: "a"})
	h.Add(Record{ID: "b"})
	h.Add(Record{ID: "c"})
	h.Clear()

	assert.Empty(t, h.List())
	assert.Equal(t, 0, h.Len())

	h.Add(Record{ID: "d"})
	assert.Equal(t, []string{"d"}, ids(h.List()))
}

func TestHistory_MinimumSize(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, 1, h.Cap())

	h.Add(Record{ID: "a"})
	h.Add(Record{ID: "b"})
	assert.Equal(t, []string{"b"}, ids(h.List()))
}

func TestHistory_ConcurrentAdd(t *testing.T) {
	h := NewHistory(DefaultHistorySize)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Add(Record{ID: strconv.Itoa(i)})
			_ = h.List()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, DefaultHistorySize, h.Len())
}
