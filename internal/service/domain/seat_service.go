package domain

import (
	"context"

	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/internal/repository"
)

// SeatCache holds projected seat maps per showtime. Every Invalidate bumps
// the showtime's generation; SetSeats drops a map loaded under an older
// generation, so a read that raced a booking cannot write stale seats back.
type SeatCache interface {
	// GetSeats returns the cached map, or on a miss the generation the
	// caller must hand to SetSeats.
	GetSeats(ctx context.Context, showtimeID uint) (seats []SeatView, gen int64, ok bool, err error)
	SetSeats(ctx context.Context, showtimeID uint, gen int64, seats []SeatView) error
	Invalidate(ctx context.Context, showtimeIDs ...uint) error
}

type SeatService interface {
	GetSeatsByShowtimeID(ctx context.Context, showtimeID uint) ([]SeatView, error)
}

type seatService struct {
	store  repository.Store
	cache  SeatCache
	logger *zap.Logger
}

var _ SeatService = (*seatService)(nil)

// NewSeatService accepts a nil cache.
func NewSeatService(store repository.Store, cache SeatCache, logger *zap.Logger) *seatService {
	return &seatService{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// GetSeatsByShowtimeID reads without locks; in-flight bookings may not be
// visible yet.
func (s *seatService) GetSeatsByShowtimeID(ctx context.Context, showtimeID uint) ([]SeatView, error) {
	repos := s.store.Repos()
	if _, err := repos.Showtimes.GetByID(ctx, showtimeID); err != nil {
		return nil, notFound(err, "showtime %d", showtimeID)
	}

	cacheable := false
	var gen int64
	if s.cache != nil {
		seats, g, ok, err := s.cache.GetSeats(ctx, showtimeID)
		switch {
		case err != nil:
			s.logger.Warn("seat cache read failed", zap.Uint("showtime_id", showtimeID), zap.Error(err))
		case ok:
			return seats, nil
		default:
			cacheable, gen = true, g
		}
	}

	rows, err := repos.Seats.ListByShowtimeID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	seats := make([]SeatView, 0, len(rows))
	for _, row := range rows {
		seats = append(seats, SeatView{ID: row.ID, SeatNumber: row.SeatNumber, Booked: row.Booked})
	}
	SortSeatViews(seats)

	if cacheable {
		if err := s.cache.SetSeats(ctx, showtimeID, gen, seats); err != nil {
			s.logger.Warn("seat cache write failed", zap.Uint("showtime_id", showtimeID), zap.Error(err))
		}
	}
	return seats, nil
}
