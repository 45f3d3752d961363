package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/service"
)

func TestCreateShowtimeGeneratesSeats(t *testing.T) {
	f := newFixture(t)
	st := f.addShowtime(t, 5)

	assert.Equal(t, 5, st.TotalSeats)
	assert.Equal(t, 5, st.AvailableSeats)
	assert.Equal(t, "Arrival", st.MovieTitle)

	seats, err := f.seats.GetSeatsByShowtimeID(context.Background(), st.ID)
	require.NoError(t, err)
	numbers := make([]string, 0, len(seats))
	for _, s := range seats {
		assert.False(t, s.Booked)
		numbers = append(numbers, s.SeatNumber)
	}
	assert.Equal(t, []string{"A1", "A2", "B1", "B2", "C1"}, numbers)
}

func TestCreateShowtimeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := baseTime.Add(time.Hour)

	tests := []struct {
		name string
		in   ShowtimeInput
		want error
	}{
		{"unknown movie", ShowtimeInput{MovieID: 42, StartAt: start, EndAt: start.Add(time.Hour), TotalSeats: 10}, service.ErrNotFound},
		{"missing movie", ShowtimeInput{StartAt: start, EndAt: start.Add(time.Hour), TotalSeats: 10}, service.ErrInvalidInput},
		{"end before start", ShowtimeInput{MovieID: f.movie.ID, StartAt: start, EndAt: start.Add(-time.Minute), TotalSeats: 10}, service.ErrInvalidInput},
		{"no seats", ShowtimeInput{MovieID: f.movie.ID, StartAt: start, EndAt: start.Add(time.Hour), TotalSeats: 0}, service.ErrInvalidInput},
		{"starts now", ShowtimeInput{MovieID: f.movie.ID, StartAt: baseTime, EndAt: baseTime.Add(time.Hour), TotalSeats: 10}, service.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.showtimes.CreateShowtime(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	upcoming, err := f.showtimes.GetUpcomingShowtimes(ctx)
	require.NoError(t, err)
	assert.Empty(t, upcoming)
}

func TestUpdateShowtimeRegeneratesSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	st := f.addShowtime(t, 4)

	_, err := f.reservations.Book(ctx, alice.ID, st.ID, []string{"A1"})
	require.NoError(t, err)

	updated, err := f.showtimes.UpdateShowtime(ctx, st.ID, ShowtimeInput{
		MovieID:    st.MovieID,
		StartAt:    st.StartTime,
		EndAt:      st.EndTime,
		TotalSeats: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.TotalSeats)
	assert.Equal(t, 9, updated.AvailableSeats)

	seats, err := f.seats.GetSeatsByShowtimeID(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, seats, 9)
	assert.Equal(t, "C3", seats[8].SeatNumber)
	assert.Empty(t, f.bookedNumbers(t, st.ID))

	// new seats are bookable
	_, err = f.reservations.Book(ctx, alice.ID, st.ID, []string{"C3"})
	require.NoError(t, err)
}

func TestUpdateShowtimeKeepsSeatsWhenCountUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	st := f.addShowtime(t, 4)

	_, err := f.reservations.Book(ctx, alice.ID, st.ID, []string{"B2"})
	require.NoError(t, err)

	newStart := st.StartTime.Add(30 * time.Minute)
	updated, err := f.showtimes.UpdateShowtime(ctx, st.ID, ShowtimeInput{
		MovieID:    st.MovieID,
		StartAt:    newStart,
		EndAt:      newStart.Add(2 * time.Hour),
		TotalSeats: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, newStart, updated.StartTime)
	assert.Equal(t, 3, updated.AvailableSeats)
	assert.Equal(t, []string{"B2"}, f.bookedNumbers(t, st.ID))
}

func TestUpdateShowtimeNotFound(t *testing.T) {
	f := newFixture(t)
	start := baseTime.Add(time.Hour)
	_, err := f.showtimes.UpdateShowtime(context.Background(), 77, ShowtimeInput{
		MovieID: f.movie.ID, StartAt: start, EndAt: start.Add(time.Hour), TotalSeats: 3,
	})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteShowtime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	st := f.addShowtime(t, 4)

	_, err := f.reservations.Book(ctx, alice.ID, st.ID, []string{"A1"})
	require.NoError(t, err)

	require.NoError(t, f.showtimes.DeleteShowtime(ctx, st.ID))

	_, err = f.showtimes.GetShowtimeByID(ctx, st.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = f.seats.GetSeatsByShowtimeID(ctx, st.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	active, err := f.reservations.ListActive(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, f.showtimes.DeleteShowtime(ctx, st.ID), service.ErrNotFound)
}

func TestShowtimeListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.movie
	other.ID = 0
	other.Title = "Dune"
	require.NoError(t, f.movies.CreateMovie(ctx, &other))

	day := time.Date(2030, 3, 15, 0, 0, 0, 0, time.UTC)
	create := func(movieID uint, start time.Time) ShowtimeView {
		view, err := f.showtimes.CreateShowtime(ctx, ShowtimeInput{
			MovieID: movieID, StartAt: start, EndAt: start.Add(2 * time.Hour), TotalSeats: 4,
		})
		require.NoError(t, err)
		return *view
	}
	late := create(f.movie.ID, day.Add(21*time.Hour))
	early := create(f.movie.ID, day.Add(10*time.Hour))
	nextDay := create(f.movie.ID, day.Add(24*time.Hour))
	create(other.ID, day.Add(12*time.Hour))

	byMovie, err := f.showtimes.GetShowtimesByMovieID(ctx, f.movie.ID)
	require.NoError(t, err)
	require.Len(t, byMovie, 3)
	assert.Equal(t, []uint{early.ID, late.ID, nextDay.ID}, []uint{byMovie[0].ID, byMovie[1].ID, byMovie[2].ID})

	onDay, err := f.showtimes.GetShowtimesByMovieAndDate(ctx, f.movie.ID, day)
	require.NoError(t, err)
	require.Len(t, onDay, 2)
	assert.Equal(t, early.ID, onDay[0].ID)
	assert.Equal(t, late.ID, onDay[1].ID)

	upcoming, err := f.showtimes.GetUpcomingShowtimes(ctx)
	require.NoError(t, err)
	assert.Len(t, upcoming, 4)

	f.clock.Advance(24 * time.Hour) // now 2030-03-15 12:00
	upcoming, err = f.showtimes.GetUpcomingShowtimes(ctx)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, late.ID, upcoming[0].ID)
	assert.Equal(t, nextDay.ID, upcoming[1].ID)
}

func TestDeleteMovieCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	st := f.addShowtime(t, 4)
	_, err := f.reservations.Book(ctx, alice.ID, st.ID, []string{"A2"})
	require.NoError(t, err)

	require.NoError(t, f.movies.DeleteMovie(ctx, f.movie.ID))

	_, err = f.movies.GetMovieByID(ctx, f.movie.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = f.showtimes.GetShowtimeByID(ctx, st.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	all, err := f.reservations.ListAllActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMovieValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.movies.CreateMovie(ctx, &model.Movie{Title: "  "}), service.ErrInvalidInput)
	assert.ErrorIs(t, f.movies.UpdateMovie(ctx, &model.Movie{ID: 404, Title: "Heat"}), service.ErrNotFound)

	movies, err := f.movies.GetAllMovies(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "Arrival", movies[0].Title)
}
