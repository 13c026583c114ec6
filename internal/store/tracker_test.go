package store_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/destinations/internal/destination"
	"github.com/neexbeast/destinations/internal/store"
)

// ---- mock API ----

type mockAPI struct {
	listFn   func(ctx context.Context) ([]destination.Destination, error)
	getFn    func(ctx context.Context, id string) (*destination.Destination, error)
	createFn func(ctx context.Context, d destination.Destination) (*destination.Destination, error)
	updateFn func(ctx context.Context, id string, d destination.Destination) (*destination.Destination, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockAPI) ListDestinations(ctx context.Context) ([]destination.Destination, error) {
	return m.listFn(ctx)
}
func (m *mockAPI) GetDestination(ctx context.Context, id string) (*destination.Destination, error) {
	return m.getFn(ctx, id)
}
func (m *mockAPI) CreateDestination(ctx context.Context, d destination.Destination) (*destination.Destination, error) {
	return m.createFn(ctx, d)
}
func (m *mockAPI) UpdateDestination(ctx context.Context, id string, d destination.Destination) (*destination.Destination, error) {
	return m.updateFn(ctx, id, d)
}
func (m *mockAPI) DeleteDestination(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// ---- helpers ----

func newTracker(api store.API) *store.Tracker {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return store.NewTracker(api, store.New(), log)
}

func seeded(t *testing.T, api *mockAPI) *store.Tracker {
	t.Helper()
	api.listFn = func(_ context.Context) ([]destination.Destination, error) { return sampleList(), nil }
	tr := newTracker(api)
	require.NoError(t, tr.Do(context.Background(), store.FetchAll()))
	return tr
}

func waitFor(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("operation did not complete")
		return nil
	}
}

// ---- operations ----

func TestDo_FetchAll(t *testing.T) {
	tr := seeded(t, &mockAPI{})
	s := tr.Store()

	assert.Equal(t, sampleList(), s.Destinations())
	assert.Equal(t, store.StatusSuccess, s.Status(store.KindFetchAll))
	assert.Empty(t, s.Err())
}

func TestDo_FetchByID(t *testing.T) {
	var gotID string
	api := &mockAPI{
		getFn: func(_ context.Context, id string) (*destination.Destination, error) {
			gotID = id
			d := dest(id, "Kyoto", "Japan")
			return &d, nil
		},
	}
	tr := newTracker(api)

	require.NoError(t, tr.Do(context.Background(), store.FetchByID("2")))
	assert.Equal(t, "2", gotID)
	require.NotNil(t, tr.Store().Selected())
	assert.Equal(t, "Kyoto", tr.Store().Selected().Name)
	assert.Equal(t, store.StatusSuccess, tr.Store().Status(store.KindFetchByID))
	assert.Empty(t, tr.Store().Destinations(), "fetch-by-id leaves the collection alone")
}

func TestDo_CreateAppends(t *testing.T) {
	api := &mockAPI{
		createFn: func(_ context.Context, d destination.Destination) (*destination.Destination, error) {
			d.ID = "server-id"
			return &d, nil
		},
	}
	tr := seeded(t, api)

	require.NoError(t, tr.Do(context.Background(), store.Create(dest("", "Lima", "Peru"))))

	got := tr.Store().Destinations()
	require.Len(t, got, 6)
	assert.Equal(t, "server-id", got[5].ID)
	assert.Equal(t, "Lima", got[5].Name)
	assert.Equal(t, store.StatusSuccess, tr.Store().Status(store.KindCreate))
}

func TestDo_CreateFailureLeavesCollection(t *testing.T) {
	api := &mockAPI{
		createFn: func(_ context.Context, _ destination.Destination) (*destination.Destination, error) {
			return nil, errors.New("timeout")
		},
	}
	tr := seeded(t, api)
	before := tr.Store().Destinations()

	err := tr.Do(context.Background(), store.Create(dest("", "Lima", "Peru")))
	require.Error(t, err)

	s := tr.Store()
	assert.Equal(t, before, s.Destinations())
	assert.Equal(t, store.StatusError, s.Statuses().Create)
	assert.Equal(t, "timeout", s.Err())
	assert.Equal(t, store.StatusSuccess, s.Status(store.KindFetchAll))
}

func TestDo_ErrorIsUnwrappable(t *testing.T) {
	apiErr := &destination.StatusError{Method: "GET", URL: "u", StatusCode: 503}
	api := &mockAPI{
		listFn: func(_ context.Context) ([]destination.Destination, error) { return nil, apiErr },
	}
	tr := newTracker(api)

	err := tr.Do(context.Background(), store.FetchAll())
	var statusErr *destination.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 503, statusErr.StatusCode)
	assert.Equal(t, "Request failed with status code 503", tr.Store().Err())
}

func TestDo_UpdateReplacesInPlace(t *testing.T) {
	var gotID string
	api := &mockAPI{
		updateFn: func(_ context.Context, id string, d destination.Destination) (*destination.Destination, error) {
			gotID = id
			d.ID = id
			return &d, nil
		},
	}
	tr := seeded(t, api)
	before := tr.Store().Destinations()

	require.NoError(t, tr.Do(context.Background(), store.Update("4", dest("", "Nice", "France (Riviera)"))))
	assert.Equal(t, "4", gotID)

	after := tr.Store().Destinations()
	require.Len(t, after, len(before))
	assert.Equal(t, "France (Riviera)", after[3].Country)
	assert.Equal(t, before[:3], after[:3])
	assert.Equal(t, before[4:], after[4:])
}

func TestDo_UpdateUnknownIDIsNoop(t *testing.T) {
	api := &mockAPI{
		updateFn: func(_ context.Context, id string, d destination.Destination) (*destination.Destination, error) {
			d.ID = id
			return &d, nil
		},
	}
	tr := seeded(t, api)
	before := tr.Store().Destinations()

	require.NoError(t, tr.Do(context.Background(), store.Update("missing", dest("", "Ghost", "Nowhere"))))
	assert.Equal(t, before, tr.Store().Destinations())
	assert.Equal(t, store.StatusSuccess, tr.Store().Status(store.KindUpdate))
}

func TestDo_DeleteTwiceIsIdempotent(t *testing.T) {
	calls := 0
	api := &mockAPI{
		deleteFn: func(_ context.Context, _ string) error {
			calls++
			return nil
		},
	}
	tr := seeded(t, api)

	require.NoError(t, tr.Do(context.Background(), store.Delete("3")))
	assert.Equal(t, []string{"1", "2", "4", "5"}, ids(tr.Store().Destinations()))

	require.NoError(t, tr.Do(context.Background(), store.Delete("3")))
	assert.Equal(t, []string{"1", "2", "4", "5"}, ids(tr.Store().Destinations()))
	assert.Equal(t, store.StatusSuccess, tr.Store().Status(store.KindDelete))
	assert.Empty(t, tr.Store().Err())
	assert.Equal(t, 2, calls)
}

func TestDo_NilResponse(t *testing.T) {
	api := &mockAPI{
		getFn: func(_ context.Context, _ string) (*destination.Destination, error) { return nil, nil },
	}
	tr := newTracker(api)

	require.Error(t, tr.Do(context.Background(), store.FetchByID("1")))
	assert.Equal(t, store.StatusError, tr.Store().Status(store.KindFetchByID))
	assert.Nil(t, tr.Store().Selected())
}

// ---- asynchronous dispatch ----

func TestGo_LoadingBeforeReturn(t *testing.T) {
	release := make(chan struct{})
	api := &mockAPI{
		listFn: func(_ context.Context) ([]destination.Destination, error) {
			<-release
			return sampleList(), nil
		},
	}
	tr := newTracker(api)

	done := tr.Go(context.Background(), store.FetchAll())
	assert.Equal(t, store.StatusLoading, tr.Store().Status(store.KindFetchAll))

	close(release)
	require.NoError(t, waitFor(t, done))
	assert.Equal(t, store.StatusSuccess, tr.Store().Status(store.KindFetchAll))
	assert.Len(t, tr.Store().Destinations(), 5)

	_, open := <-done
	assert.False(t, open, "channel is closed after the result")
}

func TestGo_OverlappingFetchAllLastCompletionWins(t *testing.T) {
	firstRelease := make(chan struct{})
	secondRelease := make(chan struct{})
	var mu sync.Mutex
	call := 0

	api := &mockAPI{
		listFn: func(_ context.Context) ([]destination.Destination, error) {
			mu.Lock()
			call++
			n := call
			mu.Unlock()
			if n == 1 {
				<-firstRelease
				return []destination.Destination{dest("old", "Old", "Response")}, nil
			}
			<-secondRelease
			return []destination.Destination{dest("new", "New", "Response")}, nil
		},
	}
	tr := newTracker(api)

	var transitions []store.Status
	var tmu sync.Mutex
	tr.Store().Subscribe(func() {
		tmu.Lock()
		transitions = append(transitions, tr.Store().Status(store.KindFetchAll))
		tmu.Unlock()
	})

	first := tr.Go(context.Background(), store.FetchAll())
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return call == 1
	}, time.Second, 5*time.Millisecond)
	second := tr.Go(context.Background(), store.FetchAll())
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return call == 2
	}, time.Second, 5*time.Millisecond)

	// The later dispatch answers first; the earlier one's late response still applies.
	close(secondRelease)
	require.NoError(t, waitFor(t, second))
	assert.Equal(t, []string{"new"}, ids(tr.Store().Destinations()))

	close(firstRelease)
	require.NoError(t, waitFor(t, first))
	assert.Equal(t, []string{"old"}, ids(tr.Store().Destinations()))

	tmu.Lock()
	defer tmu.Unlock()
	assert.Equal(t, []store.Status{
		store.StatusLoading, store.StatusLoading, store.StatusSuccess, store.StatusSuccess,
	}, transitions)
}

func TestGo_DifferentKindsRunConcurrently(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(2)
	barrier := func() {
		wg.Done()
		wg.Wait()
	}
	api := &mockAPI{
		listFn: func(_ context.Context) ([]destination.Destination, error) {
			barrier()
			return sampleList(), nil
		},
		getFn: func(_ context.Context, id string) (*destination.Destination, error) {
			barrier()
			d := dest(id, "Kyoto", "Japan")
			return &d, nil
		},
	}
	tr := newTracker(api)

	all := tr.Go(context.Background(), store.FetchAll())
	one := tr.Go(context.Background(), store.FetchByID("2"))
	require.NoError(t, waitFor(t, all))
	require.NoError(t, waitFor(t, one))

	st := tr.Store().Statuses()
	assert.Equal(t, store.StatusSuccess, st.FetchAll)
	assert.Equal(t, store.StatusSuccess, st.FetchByID)
}

func TestGo_FailureReported(t *testing.T) {
	api := &mockAPI{
		deleteFn: func(_ context.Context, _ string) error { return errors.New("Network Error") },
	}
	tr := seeded(t, api)

	err := waitFor(t, tr.Go(context.Background(), store.Delete("1")))
	require.Error(t, err)
	assert.Equal(t, "Network Error", tr.Store().Err())
	assert.Equal(t, store.StatusError, tr.Store().Status(store.KindDelete))
	assert.Len(t, tr.Store().Destinations(), 5)
}

func TestGo_PanicBecomesFailure(t *testing.T) {
	api := &mockAPI{
		listFn: func(_ context.Context) ([]destination.Destination, error) { panic("boom") },
	}
	tr := newTracker(api)

	err := waitFor(t, tr.Go(context.Background(), store.FetchAll()))
	require.Error(t, err)
	assert.Equal(t, store.StatusError, tr.Store().Status(store.KindFetchAll))
	assert.Contains(t, tr.Store().Err(), "boom")
}

func TestWait(t *testing.T) {
	api := &mockAPI{
		deleteFn: func(_ context.Context, _ string) error {
			time.Sleep(20 * time.Millisecond)
			return nil
		},
	}
	tr := seeded(t, api)

	tr.Go(context.Background(), store.Delete("1"))
	tr.Go(context.Background(), store.Delete("2"))
	tr.Wait()

	assert.Equal(t, []string{"3", "4", "5"}, ids(tr.Store().Destinations()))
}

func TestOp_Kind(t *testing.T) {
	assert.Equal(t, store.KindFetchAll, store.FetchAll().Kind())
	assert.Equal(t, store.KindFetchByID, store.FetchByID("x").Kind())
	assert.Equal(t, store.KindCreate, store.Create(destination.Destination{}).Kind())
	assert.Equal(t, store.KindUpdate, store.Update("x", destination.Destination{}).Kind())
	assert.Equal(t, store.KindDelete, store.Delete("x").Kind())
}
