package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/destinations/internal/destination"
)

// API is the remote Destination API as seen by the Tracker.
// *destination.Client satisfies this interface.
type API interface {
	ListDestinations(ctx context.Context) ([]destination.Destination, error)
	GetDestination(ctx context.Context, id string) (*destination.Destination, error)
	CreateDestination(ctx context.Context, d destination.Destination) (*destination.Destination, error)
	UpdateDestination(ctx context.Context, id string, d destination.Destination) (*destination.Destination, error)
	DeleteDestination(ctx context.Context, id string) error
}

var errEmptyResponse = errors.New("empty response from destination API")

// Op is a remote operation ready to be dispatched through a Tracker.
type Op struct {
	kind  Kind
	attrs []any
	call  func(ctx context.Context, api API) (apply func(*Store), err error)
}

// Kind reports which operation kind op belongs to.
func (op Op) Kind() Kind { return op.kind }

// FetchAll loads the whole collection.
func FetchAll() Op {
	return Op{
		kind: KindFetchAll,
		call: func(ctx context.Context, api API) (func(*Store), error) {
			list, err := api.ListDestinations(ctx)
			if err != nil {
				return nil, err
			}
			return func(s *Store) { s.SetDestinations(list) }, nil
		},
	}
}

// FetchByID loads a single destination into the selected slot.
func FetchByID(id string) Op {
	return Op{
		kind:  KindFetchByID,
		attrs: []any{"id", id},
		call: func(ctx context.Context, api API) (func(*Store), error) {
			d, err := api.GetDestination(ctx, id)
			if err != nil {
				return nil, err
			}
			if d == nil {
				return nil, errEmptyResponse
			}
			return func(s *Store) { s.SetSelected(*d) }, nil
		},
	}
}

// Create submits a new destination and appends the server's copy.
func Create(d destination.Destination) Op {
	return Op{
		kind:  KindCreate,
		attrs: []any{"name", d.Name},
		call: func(ctx context.Context, api API) (func(*Store), error) {
			created, err := api.CreateDestination(ctx, d)
			if err != nil {
				return nil, err
			}
			if created == nil {
				return nil, errEmptyResponse
			}
			return func(s *Store) { s.AppendDestination(*created) }, nil
		},
	}
}

// Update sends d for the destination id and replaces the matching entry
// with the server's copy. The collection is left alone when no entry matches.
func Update(id string, d destination.Destination) Op {
	return Op{
		kind:  KindUpdate,
		attrs: []any{"id", id},
		call: func(ctx context.Context, api API) (func(*Store), error) {
			updated, err := api.UpdateDestination(ctx, id, d)
			if err != nil {
				return nil, err
			}
			if updated == nil {
				return nil, errEmptyResponse
			}
			return func(s *Store) { s.ReplaceDestination(*updated) }, nil
		},
	}
}

// Delete removes the destination id remotely and then from the collection.
func Delete(id string) Op {
	return Op{
		kind:  KindDelete,
		attrs: []any{"id", id},
		call: func(ctx context.Context, api API) (func(*Store), error) {
			if err := api.DeleteDestination(ctx, id); err != nil {
				return nil, err
			}
			return func(s *Store) { s.RemoveDestination(id) }, nil
		},
	}
}

// Tracker dispatches operations against the API and records their outcome in a Store.
// Dispatches are neither deduplicated nor ordered: every completion applies,
// in the order it arrives.
type Tracker struct {
	api      API
	store    *Store
	log      *slog.Logger
	inflight errgroup.Group
}

// NewTracker constructs a Tracker that writes into s.
func NewTracker(api API, s *Store, log *slog.Logger) *Tracker {
	return &Tracker{api: api, store: s, log: log}
}

// Store returns the Store the Tracker writes into.
func (t *Tracker) Store() *Store { return t.store }

// Do runs op to completion on the calling goroutine. The outcome is recorded
// in the Store; the returned error is the API failure, if any.
func (t *Tracker) Do(ctx context.Context, op Op) error {
	opID := t.begin(op)
	return t.complete(ctx, op, opID)
}

// Go starts op on its own goroutine. The kind is already loading when Go
// returns. The channel yields the completion result once and is then closed.
func (t *Tracker) Go(ctx context.Context, op Op) <-chan error {
	opID := t.begin(op)
	done := make(chan error, 1)

	t.inflight.Go(func() error {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				t.log.Error("destination operation panicked", "kind", op.kind.String(), "op_id", opID, "recover", r)
				msg := fmt.Sprintf("%s panicked: %v", op.kind, r)
				t.store.Fail(op.kind, msg)
				done <- errors.New(msg)
			}
		}()
		done <- t.complete(ctx, op, opID)
		return nil
	})

	return done
}

// Wait blocks until every operation started with Go has completed.
// It must not be called concurrently with Go.
func (t *Tracker) Wait() {
	_ = t.inflight.Wait()
}

func (t *Tracker) begin(op Op) string {
	opID := uuid.NewString()
	t.store.Begin(op.kind)
	t.log.Debug("destination operation started", append([]any{"kind", op.kind.String(), "op_id", opID}, op.attrs...)...)
	return opID
}

func (t *Tracker) complete(ctx context.Context, op Op, opID string) error {
	apply, err := op.call(ctx, t.api)
	if err != nil {
		t.log.Warn("destination operation failed", append([]any{"kind", op.kind.String(), "op_id", opID, "err", err}, op.attrs...)...)
		t.store.Fail(op.kind, err.Error())
		return fmt.Errorf("%s: %w", op.kind, err)
	}

	apply(t.store)
	t.log.Debug("destination operation succeeded", "kind", op.kind.String(), "op_id", opID)
	return nil
}
