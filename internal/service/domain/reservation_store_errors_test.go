package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/repository"
	"github.com/qs-lzh/movie-booking/internal/repository/memory"
	"github.com/qs-lzh/movie-booking/internal/service"
)

// commitHookStore runs beforeCommit once, after a transaction body succeeds
// and before its staged writes are applied.
type commitHookStore struct {
	*memory.Store
	beforeCommit func()
}

func (s *commitHookStore) WithinTx(ctx context.Context, fn func(repos repository.Repos) error) error {
	return s.Store.WithinTx(ctx, func(repos repository.Repos) error {
		if err := fn(repos); err != nil {
			return err
		}
		if hook := s.beforeCommit; hook != nil {
			s.beforeCommit = nil
			hook()
		}
		return nil
	})
}

func TestBookLockWaitTimeoutIsConflict(t *testing.T) {
	f := newFixtureWithLockTimeout(t, 50*time.Millisecond)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	st := f.addShowtime(t, 4)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.store.WithinTx(ctx, func(repos repository.Repos) error {
			if _, err := repos.Seats.LockByNumbers(ctx, st.ID, []string{"A1"}); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	_, err := f.reservations.Book(ctx, alice.ID, st.ID, []string{"A1", "A2"})
	close(release)
	<-done

	require.ErrorIs(t, err, service.ErrConflict)
	assert.Contains(t, err.Error(), "seat A1")
	assert.Empty(t, f.bookedNumbers(t, st.ID))

	active, err := f.reservations.ListActive(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCancelStaleSeatVersionIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	st := f.addShowtime(t, 4)

	booked, err := f.reservations.Book(ctx, alice.ID, st.ID, []string{"A1"})
	require.NoError(t, err)

	store := &commitHookStore{Store: f.store}
	reservations := NewReservationService(store, f.clock, zap.NewNop())

	// another writer touches A1 after the cancel read it
	store.beforeCommit = func() {
		rows, err := f.store.Repos().Seats.LockByNumbers(ctx, st.ID, []string{"A1"})
		require.NoError(t, err)
		require.NoError(t, f.store.Repos().Seats.SetBooked(ctx, []model.Seat{rows[0]}, true))
	}

	_, err = reservations.Cancel(ctx, booked.ID, alice.ID)
	require.ErrorIs(t, err, service.ErrConflict)
	assert.Contains(t, err.Error(), "seat A1")

	got, err := f.reservations.GetByID(ctx, booked.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, got.Cancelled)
	assert.Equal(t, []string{"A1"}, f.bookedNumbers(t, st.ID))
}
