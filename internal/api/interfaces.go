package api

import (
	"context"

	"github.com/neexbeast/destinations/internal/destination"
	"github.com/neexbeast/destinations/internal/store"
)

// DestinationState defines the store reads and the search write needed by handlers.
type DestinationState interface {
	Snapshot() store.State
	Filtered() []destination.Destination
	Selected() *destination.Destination
	SearchFilter() string
	SetSearchFilter(text string)
}

// Dispatcher runs a destination operation to completion.
type Dispatcher interface {
	Do(ctx context.Context, op store.Op) error
}
