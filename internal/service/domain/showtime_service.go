package domain

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/repository"
	"github.com/qs-lzh/movie-booking/internal/service"
	"github.com/qs-lzh/movie-booking/internal/util"
)

type ShowtimeInput struct {
	MovieID    uint
	StartAt    time.Time
	EndAt      time.Time
	TotalSeats int
}

type ShowtimeService interface {
	CreateShowtime(ctx context.Context, in ShowtimeInput) (*ShowtimeView, error)
	UpdateShowtime(ctx context.Context, id uint, in ShowtimeInput) (*ShowtimeView, error)
	DeleteShowtime(ctx context.Context, id uint) error
	GetShowtimeByID(ctx context.Context, id uint) (*ShowtimeView, error)
	GetShowtimesByMovieID(ctx context.Context, movieID uint) ([]ShowtimeView, error)
	GetShowtimesByMovieAndDate(ctx context.Context, movieID uint, date time.Time) ([]ShowtimeView, error)
	GetUpcomingShowtimes(ctx context.Context) ([]ShowtimeView, error)
}

type showtimeService struct {
	store  repository.Store
	cache  SeatCache
	clock  util.Clock
	logger *zap.Logger
}

var _ ShowtimeService = (*showtimeService)(nil)

// NewShowtimeService accepts a nil cache.
func NewShowtimeService(store repository.Store, cache SeatCache, clock util.Clock, logger *zap.Logger) *showtimeService {
	return &showtimeService{
		store:  store,
		cache:  cache,
		clock:  clock,
		logger: logger,
	}
}

func validateShowtimeInput(in ShowtimeInput) error {
	if in.MovieID == 0 {
		return fmt.Errorf("%w: movie id is required", service.ErrInvalidInput)
	}
	if !in.StartAt.Before(in.EndAt) {
		return fmt.Errorf("%w: start time must be before end time", service.ErrInvalidInput)
	}
	if in.TotalSeats < 1 {
		return fmt.Errorf("%w: total seats must be at least 1", service.ErrInvalidInput)
	}
	return nil
}

func newSeats(showtimeID uint, total int) []model.Seat {
	numbers := GenerateSeatNumbers(total)
	seats := make([]model.Seat, 0, len(numbers))
	for _, n := range numbers {
		seats = append(seats, model.Seat{ShowtimeID: showtimeID, SeatNumber: n})
	}
	return seats
}

// CreateShowtime stores the showtime and its generated seats in one
// transaction.
func (s *showtimeService) CreateShowtime(ctx context.Context, in ShowtimeInput) (*ShowtimeView, error) {
	if err := validateShowtimeInput(in); err != nil {
		return nil, err
	}
	if !in.StartAt.After(s.clock.Now()) {
		return nil, fmt.Errorf("%w: start time must be in the future", service.ErrInvalidInput)
	}

	showtime := &model.Showtime{
		MovieID:    in.MovieID,
		StartAt:    in.StartAt,
		EndAt:      in.EndAt,
		TotalSeats: in.TotalSeats,
	}
	err := s.store.WithinTx(ctx, func(repos repository.Repos) error {
		movie, err := repos.Movies.GetByID(ctx, in.MovieID)
		if err != nil {
			return notFound(err, "movie %d", in.MovieID)
		}
		if err := repos.Showtimes.Create(ctx, showtime); err != nil {
			return err
		}
		showtime.Movie = *movie
		return repos.Seats.CreateBulk(ctx, newSeats(showtime.ID, in.TotalSeats))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("showtime created",
		zap.Uint("showtime_id", showtime.ID),
		zap.Uint("movie_id", showtime.MovieID),
		zap.Int("total_seats", showtime.TotalSeats))
	view := NewShowtimeView(showtime, 0)
	return &view, nil
}

// UpdateShowtime rewrites the showtime. A changed seat count discards every
// existing seat, booked or not, and generates a fresh layout.
func (s *showtimeService) UpdateShowtime(ctx context.Context, id uint, in ShowtimeInput) (*ShowtimeView, error) {
	if err := validateShowtimeInput(in); err != nil {
		return nil, err
	}

	regenerated := false
	err := s.store.WithinTx(ctx, func(repos repository.Repos) error {
		showtime, err := repos.Showtimes.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "showtime %d", id)
		}
		if in.MovieID != showtime.MovieID {
			if _, err := repos.Movies.GetByID(ctx, in.MovieID); err != nil {
				return notFound(err, "movie %d", in.MovieID)
			}
		}
		regenerated = in.TotalSeats != showtime.TotalSeats

		showtime.MovieID = in.MovieID
		showtime.StartAt = in.StartAt
		showtime.EndAt = in.EndAt
		showtime.TotalSeats = in.TotalSeats
		if err := repos.Showtimes.Update(ctx, showtime); err != nil {
			return err
		}
		if !regenerated {
			return nil
		}
		if err := repos.Seats.DeleteByShowtimeID(ctx, id); err != nil {
			return err
		}
		return repos.Seats.CreateBulk(ctx, newSeats(id, in.TotalSeats))
	})
	if err != nil {
		return nil, err
	}

	if regenerated {
		s.invalidate(ctx, id)
		s.logger.Info("showtime seats regenerated", zap.Uint("showtime_id", id), zap.Int("total_seats", in.TotalSeats))
	}
	return s.GetShowtimeByID(ctx, id)
}

func (s *showtimeService) DeleteShowtime(ctx context.Context, id uint) error {
	err := s.store.WithinTx(ctx, func(repos repository.Repos) error {
		return deleteShowtime(ctx, repos, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.logger.Info("showtime deleted", zap.Uint("showtime_id", id))
	return nil
}

// deleteShowtime removes a showtime with its reservations and seats using
// the caller's transaction.
func deleteShowtime(ctx context.Context, repos repository.Repos, id uint) error {
	if _, err := repos.Showtimes.GetByID(ctx, id); err != nil {
		return notFound(err, "showtime %d", id)
	}
	if err := repos.Reservations.DeleteByShowtimeID(ctx, id); err != nil {
		return err
	}
	if err := repos.Seats.DeleteByShowtimeID(ctx, id); err != nil {
		return err
	}
	return repos.Showtimes.Delete(ctx, id)
}

func (s *showtimeService) GetShowtimeByID(ctx context.Context, id uint) (*ShowtimeView, error) {
	repos := s.store.Repos()
	showtime, err := repos.Showtimes.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "showtime %d", id)
	}
	booked, err := repos.Seats.CountBooked(ctx, []uint{id})
	if err != nil {
		return nil, err
	}
	view := NewShowtimeView(showtime, booked[id])
	return &view, nil
}

func (s *showtimeService) GetShowtimesByMovieID(ctx context.Context, movieID uint) ([]ShowtimeView, error) {
	showtimes, err := s.store.Repos().Showtimes.ListByMovieID(ctx, movieID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, showtimes)
}

// GetShowtimesByMovieAndDate returns showtimes starting on date's calendar
// day in UTC.
func (s *showtimeService) GetShowtimesByMovieAndDate(ctx context.Context, movieID uint, date time.Time) ([]ShowtimeView, error) {
	y, m, d := date.UTC().Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	showtimes, err := s.store.Repos().Showtimes.ListByMovieIDBetween(ctx, movieID, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return s.project(ctx, showtimes)
}

func (s *showtimeService) GetUpcomingShowtimes(ctx context.Context) ([]ShowtimeView, error) {
	showtimes, err := s.store.Repos().Showtimes.ListStartingAfter(ctx, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.project(ctx, showtimes)
}

func (s *showtimeService) project(ctx context.Context, showtimes []model.Showtime) ([]ShowtimeView, error) {
	ids := make([]uint, 0, len(showtimes))
	for _, st := range showtimes {
		ids = append(ids, st.ID)
	}
	booked, err := s.store.Repos().Seats.CountBooked(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]ShowtimeView, 0, len(showtimes))
	for i := range showtimes {
		views = append(views, NewShowtimeView(&showtimes[i], booked[showtimes[i].ID]))
	}
	return views, nil
}

func (s *showtimeService) invalidate(ctx context.Context, ids ...uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("seat cache invalidation failed", zap.Uints("showtime_ids", ids), zap.Error(err))
	}
}
