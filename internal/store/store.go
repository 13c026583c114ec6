package store

import (
	"sync"

	"github.com/neexbeast/destinations/internal/destination"
)

// State is a point-in-time copy of everything a view reads from the Store.
type State struct {
	Destinations []destination.Destination `json:"destinations"`
	Selected     *destination.Destination  `json:"singleDestination"`
	Statuses     Statuses                  `json:"statuses"`
	Error        string                    `json:"error,omitempty"`
	SearchFilter string                    `json:"searchFilter"`
}

// Store holds the destination collection, the selected destination and the
// per-kind request status. It is safe for concurrent use.
//
// The collection is copy-on-write: slices returned by Destinations and
// Filtered are never modified by the Store and must not be modified by callers.
type Store struct {
	mu           sync.RWMutex
	destinations []destination.Destination
	rev          uint64
	selected     *destination.Destination
	status       [numKinds]Status
	err          string
	search       string

	memo filterMemo

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

// New returns an empty Store with every kind idle.
func New() *Store {
	s := &Store{
		destinations: []destination.Destination{},
		subs:         make(map[int]func()),
	}
	for i := range s.status {
		s.status[i] = StatusIdle
	}
	return s
}

// ---- reads ----

// Destinations returns the collection in its current order.
func (s *Store) Destinations() []destination.Destination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destinations
}

// Selected returns a copy of the destination loaded by the last successful
// fetch-by-id, or nil if there is none.
func (s *Store) Selected() *destination.Destination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	d := *s.selected
	return &d
}

// Status returns the current status of kind.
func (s *Store) Status(kind Kind) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status[kind]
}

// Statuses returns the status of every kind.
func (s *Store) Statuses() Statuses {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return statusesOf(s.status)
}

// Err returns the message of the most recent failure of any kind, or "".
// It is never cleared by the Store.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// SearchFilter returns the current search text.
func (s *Store) SearchFilter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

// Filtered returns the collection narrowed by the current search text.
// The result is recomputed only after the collection or the search text changes.
func (s *Store) Filtered() []destination.Destination {
	s.mu.RLock()
	items, rev, term := s.destinations, s.rev, s.search
	s.mu.RUnlock()

	return s.memo.get(items, rev, term)
}

// Snapshot returns a consistent copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	st := State{
		Destinations: s.destinations,
		Statuses:     statusesOf(s.status),
		Error:        s.err,
		SearchFilter: s.search,
	}
	if s.selected != nil {
		d := *s.selected
		st.Selected = &d
	}
	s.mu.RUnlock()
	return st
}

// ---- writes ----

// SetSearchFilter replaces the search text.
func (s *Store) SetSearchFilter(text string) {
	s.update(func() { s.search = text })
}

// Begin marks kind as loading, discarding its previous outcome.
func (s *Store) Begin(kind Kind) {
	s.update(func() { s.status[kind] = StatusLoading })
}

// Fail marks kind as failed and records msg as the shared error.
// The collection and the selected destination are left untouched.
func (s *Store) Fail(kind Kind, msg string) {
	s.update(func() {
		s.status[kind] = StatusError
		s.err = msg
	})
}

// SetDestinations completes a fetch-all by replacing the whole collection.
func (s *Store) SetDestinations(list []destination.Destination) {
	next := append(make([]destination.Destination, 0, len(list)), list...)
	s.update(func() {
		s.status[KindFetchAll] = StatusSuccess
		s.replaceCollection(next)
	})
}

// SetSelected completes a fetch-by-id by replacing the selected destination.
func (s *Store) SetSelected(d destination.Destination) {
	s.update(func() {
		s.status[KindFetchByID] = StatusSuccess
		s.selected = &d
	})
}

// AppendDestination completes a create by adding d at the end of the collection.
func (s *Store) AppendDestination(d destination.Destination) {
	s.update(func() {
		s.status[KindCreate] = StatusSuccess
		next := make([]destination.Destination, 0, len(s.destinations)+1)
		next = append(next, s.destinations...)
		s.replaceCollection(append(next, d))
	})
}

// ReplaceDestination completes an update by replacing the entry with d's ID
// in place. If no entry matches, the collection is unchanged and false is returned.
func (s *Store) ReplaceDestination(d destination.Destination) bool {
	found := false
	s.update(func() {
		s.status[KindUpdate] = StatusSuccess
		idx := indexOf(s.destinations, d.ID)
		if idx < 0 {
			return
		}
		found = true
		next := append([]destination.Destination(nil), s.destinations...)
		next[idx] = d
		s.replaceCollection(next)
	})
	return found
}

// RemoveDestination completes a delete by dropping every entry with id.
// It returns the number of entries removed.
func (s *Store) RemoveDestination(id string) int {
	removed := 0
	s.update(func() {
		s.status[KindDelete] = StatusSuccess
		next := make([]destination.Destination, 0, len(s.destinations))
		for _, d := range s.destinations {
			if d.ID == id {
				removed++
				continue
			}
			next = append(next, d)
		}
		if removed > 0 {
			s.replaceCollection(next)
		}
	})
	return removed
}

// Subscribe registers fn to be called after every state change.
// fn runs on the goroutine that made the change and must not block.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// update applies mutate under the write lock and then notifies subscribers.
func (s *Store) update(mutate func()) {
	s.mu.Lock()
	mutate()
	s.mu.Unlock()

	s.notify()
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// replaceCollection installs next as the collection. Callers hold s.mu.
func (s *Store) replaceCollection(next []destination.Destination) {
	s.destinations = next
	s.rev++
}

func indexOf(items []destination.Destination, id string) int {
	for i, d := range items {
		if d.ID == id {
			return i
		}
	}
	return -1
}
