package domain

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/repository/memory"
)

var baseTime = time.Date(2030, 3, 14, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: baseTime}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store        *memory.Store
	clock        *testClock
	reservations *reservationService
	showtimes    *showtimeService
	seats        *seatService
	movies       *movieService

	movie model.Movie
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithLockTimeout(t, 0)
}

func newFixtureWithLockTimeout(t *testing.T, lockTimeout time.Duration) *fixture {
	t.Helper()
	store := memory.New(lockTimeout)
	clock := newTestClock()
	logger := zap.NewNop()
	f := &fixture{
		store:        store,
		clock:        clock,
		reservations: NewReservationService(store, clock, logger),
		showtimes:    NewShowtimeService(store, nil, clock, logger),
		seats:        NewSeatService(store, nil, logger),
		movies:       NewMovieService(store, nil, logger),
		movie:        model.Movie{Title: "Arrival", Genre: "Sci-Fi"},
	}
	require.NoError(t, f.movies.CreateMovie(context.Background(), &f.movie))
	return f
}

func (f *fixture) addUser(t *testing.T, name string) model.User {
	t.Helper()
	user := model.User{
		Name:           name,
		Email:          fmt.Sprintf("%s@example.com", name),
		HashedPassword: "x",
		Role:           model.RoleUser,
	}
	require.NoError(t, f.store.Repos().Users.Create(context.Background(), &user))
	return user
}

// addShowtime creates a showtime starting in two hours.
func (f *fixture) addShowtime(t *testing.T, totalSeats int) ShowtimeView {
	t.Helper()
	start := f.clock.Now().Add(2 * time.Hour)
	view, err := f.showtimes.CreateShowtime(context.Background(), ShowtimeInput{
		MovieID:    f.movie.ID,
		StartAt:    start,
		EndAt:      start.Add(2 * time.Hour),
		TotalSeats: totalSeats,
	})
	require.NoError(t, err)
	return *view
}

func (f *fixture) bookedNumbers(t *testing.T, showtimeID uint) []string {
	t.Helper()
	seats, err := f.seats.GetSeatsByShowtimeID(context.Background(), showtimeID)
	require.NoError(t, err)
	var booked []string
	for _, s := range seats {
		if s.Booked {
			booked = append(booked, s.SeatNumber)
		}
	}
	return booked
}
