package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs-lzh/movie-booking/internal/service"
)

func TestBookSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	st := f.addShowtime(t, 5)

	view, err := f.reservations.Book(ctx, alice.ID, st.ID, []string{"B1", "A2"})
	require.NoError(t, err)

	assert.NotZero(t, view.ID)
	assert.Equal(t, alice.ID, view.UserID)
	assert.Equal(t, "alice", view.UserName)
	assert.Equal(t, st.ID, view.ShowtimeID)
	assert.Equal(t, "Arrival", view.MovieTitle)
	assert.Equal(t, []string{"A2", "B1"}, view.SeatNumbers)
	assert.Equal(t, 500.0, view.TotalPrice)
	assert.Equal(t, baseTime, view.ReservationTimestamp)
	assert.False(t, view.Cancelled)

	assert.Equal(t, []string{"A2", "B1"}, f.bookedNumbers(t, st.ID))
	got, err := f.showtimes.GetShowtimeByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableSeats)
}

func TestBookDuplicateSeatNumbersCountOnce(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "alice")
	st := f.addShowtime(t, 4)

	view, err := f.reservations.Book(context.Background(), alice.ID, st.ID, []string{"A1", "A1", " A1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, view.SeatNumbers)
	assert.Equal(t, SeatPrice, view.TotalPrice)
}

func TestBookRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	st := f.addShowtime(t, 5)

	_, err := f.reservations.Book(ctx, alice.ID, 999, []string{"A1"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.reservations.Book(ctx, 999, st.ID, []string{"A1"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.reservations.Book(ctx, alice.ID, st.ID, nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.reservations.Book(ctx, alice.ID, st.ID, []string{"Z9"})
	assert.ErrorIs(t, err, service.ErrInvalidState)

	_, err = f.reservations.Book(ctx, alice.ID, st.ID, []string{"A1", "Z9"})
	assert.ErrorIs(t, err, service.ErrInvalidState)

	assert.Empty(t, f.bookedNumbers(t, st.ID))
	active, err := f.reservations.ListAllActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestBookAlreadyBookedSeatConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	st := f.addShowtime(t, 5)

	_, err := f.reservations.Book(ctx, alice.ID, st.ID, []string{"A1"})
	require.NoError(t, err)

	_, err = f.reservations.Book(ctx, bob.ID, st.ID, []string{"A2", "A1"})
	assert.ErrorIs(t, err, service.ErrConflict)
	assert.Equal(t, []string{"A1"}, f.bookedNumbers(t, st.ID))

	mine, err := f.reservations.ListActive(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestBookPastShowtime(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "alice")
	st := f.addShowtime(t, 5)

	f.clock.Advance(2 * time.Hour)
	_, err := f.reservations.Book(context.Background(), alice.ID, st.ID, []string{"A1"})
	assert.ErrorIs(t, err, service.ErrInvalidState)
	assert.Empty(t, f.bookedNumbers(t, st.ID))
}

func TestConcurrentBookingsOfSameSeat(t *testing.T) {
	f := newFixture(t)
	st := f.addShowtime(t, 25)

	const n = 32
	users := make([]uint, n)
	for i := range users {
		users[i] = f.addUser(t, fmt.Sprintf("user%d", i)).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.reservations.Book(context.Background(), users[i], st.ID, []string{"C3"})
		}(i)
	}
	close(start)
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, service.ErrConflict)
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, []string{"C3"}, f.bookedNumbers(t, st.ID))

	active, err := f.reservations.ListAllActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestConcurrentOverlappingAndDisjointBookings(t *testing.T) {
	f := newFixture(t)
	st := f.addShowtime(t, 9)
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	carol := f.addUser(t, "carol")

	requests := []struct {
		user  uint
		seats []string
	}{
		{alice.ID, []string{"A1", "A2"}},
		{bob.ID, []string{"A2", "B1"}},
		{carol.ID, []string{"C1", "C2"}},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(requests))
	for i, req := range requests {
		wg.Add(1)
		go func(i int, user uint, seats []string) {
			defer wg.Done()
			_, errs[i] = f.reservations.Book(context.Background(), user, st.ID, seats)
		}(i, req.user, req.seats)
	}
	wg.Wait()

	require.NoError(t, errs[2], "disjoint booking must succeed")
	overlapWins := 0
	for _, err := range errs[:2] {
		if err == nil {
			overlapWins++
		} else {
			assert.ErrorIs(t, err, service.ErrConflict)
		}
	}
	assert.Equal(t, 1, overlapWins)
	assert.Len(t, f.bookedNumbers(t, st.ID), 4)
}

func TestBookedSeatsMatchActiveReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.addShowtime(t, 16)

	all := GenerateSeatNumbers(16)
	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		user := f.addUser(t, fmt.Sprintf("user%d", i))
		seats := []string{all[i%16], all[(i*5+3)%16]}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reservations.Book(ctx, user.ID, st.ID, seats)
			if err != nil && !errors.Is(err, service.ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	active, err := f.reservations.ListAllActive(ctx)
	require.NoError(t, err)
	held := make(map[string]int)
	for _, r := range active {
		for _, n := range r.SeatNumbers {
			held[n]++
		}
	}
	booked := f.bookedNumbers(t, st.ID)
	assert.Len(t, held, len(booked))
	for _, n := range booked {
		assert.Equal(t, 1, held[n], "seat %s", n)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	st := f.addShowtime(t, 5)

	booked, err := f.reservations.Book(ctx, alice.ID, st.ID, []string{"A1", "B2"})
	require.NoError(t, err)

	cancelled, err := f.reservations.Cancel(ctx, booked.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, cancelled.Cancelled)
	assert.Equal(t, []string{"A1", "B2"}, cancelled.SeatNumbers)
	assert.Empty(t, f.bookedNumbers(t, st.ID))

	active, err := f.reservations.ListActive(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	// released seats can be booked again
	_, err = f.reservations.Book(ctx, alice.ID, st.ID, []string{"A1"})
	require.NoError(t, err)
}

func TestCancelRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	st := f.addShowtime(t, 5)

	booked, err := f.reservations.Book(ctx, alice.ID, st.ID, []string{"A1"})
	require.NoError(t, err)

	_, err = f.reservations.Cancel(ctx, 999, alice.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.reservations.Cancel(ctx, booked.ID, bob.ID)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Equal(t, []string{"A1"}, f.bookedNumbers(t, st.ID))

	_, err = f.reservations.Cancel(ctx, booked.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.reservations.Cancel(ctx, booked.ID, alice.ID)
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestCancelPastShowtime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	st := f.addShowtime(t, 5)

	booked, err := f.reservations.Book(ctx, alice.ID, st.ID, []string{"A1"})
	require.NoError(t, err)

	f.clock.Advance(3 * time.Hour)
	_, err = f.reservations.Cancel(ctx, booked.ID, alice.ID)
	assert.ErrorIs(t, err, service.ErrInvalidState)
	assert.Equal(t, []string{"A1"}, f.bookedNumbers(t, st.ID))
}

func TestConcurrentCancelSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	st := f.addShowtime(t, 5)

	booked, err := f.reservations.Book(ctx, alice.ID, st.ID, []string{"A1", "A2"})
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.reservations.Cancel(ctx, booked.ID, alice.ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, service.ErrInvalidState)
	}
	assert.Equal(t, 1, successes)
	assert.Empty(t, f.bookedNumbers(t, st.ID))
}

func TestReservationQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	soon := f.addShowtime(t, 4)
	f.clock.Advance(time.Hour)
	later := f.addShowtime(t, 4)

	first, err := f.reservations.Book(ctx, alice.ID, later.ID, []string{"A1"})
	require.NoError(t, err)
	second, err := f.reservations.Book(ctx, alice.ID, soon.ID, []string{"A1"})
	require.NoError(t, err)
	_, err = f.reservations.Book(ctx, bob.ID, soon.ID, []string{"B1"})
	require.NoError(t, err)

	upcoming, err := f.reservations.ListUpcoming(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, second.ID, upcoming[0].ID)
	assert.Equal(t, first.ID, upcoming[1].ID)

	got, err := f.reservations.GetByID(ctx, first.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, got.SeatNumbers)

	_, err = f.reservations.GetByID(ctx, first.ID, bob.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	// the earlier showtime has started
	f.clock.Advance(90 * time.Minute)
	upcoming, err = f.reservations.ListUpcoming(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, first.ID, upcoming[0].ID)

	all, err := f.reservations.ListAllActive(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
