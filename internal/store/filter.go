package store

import (
	"strings"
	"sync"

	"github.com/neexbeast/destinations/internal/destination"
)

// Filter returns the destinations whose name or country contains term,
// ignoring case, in their original order. An empty term returns items as is.
func Filter(items []destination.Destination, term string) []destination.Destination {
	if term == "" {
		return items
	}

	needle := strings.ToLower(term)
	out := make([]destination.Destination, 0, len(items))
	for _, d := range items {
		if strings.Contains(strings.ToLower(d.Name), needle) ||
			strings.Contains(strings.ToLower(d.Country), needle) {
			out = append(out, d)
		}
	}
	return out
}

// filterMemo remembers the last Filter result keyed by collection revision and term.
type filterMemo struct {
	mu    sync.Mutex
	valid bool
	rev   uint64
	term  string
	out   []destination.Destination
}

func (m *filterMemo) get(items []destination.Destination, rev uint64, term string) []destination.Destination {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && m.rev == rev && m.term == term {
		return m.out
	}

	m.out = Filter(items, term)
	m.rev = rev
	m.term = term
	m.valid = true
	return m.out
}
