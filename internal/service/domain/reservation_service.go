package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/internal/metrics"
	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/repository"
	"github.com/qs-lzh/movie-booking/internal/service"
	"github.com/qs-lzh/movie-booking/internal/util"
)

// SeatPrice is the flat price of one seat.
const SeatPrice = 250.0

type ReservationService interface {
	Book(ctx context.Context, userID, showtimeID uint, seatNumbers []string) (*ReservationView, error)
	Cancel(ctx context.Context, reservationID, userID uint) (*ReservationView, error)
	ListActive(ctx context.Context, userID uint) ([]ReservationView, error)
	ListUpcoming(ctx context.Context, userID uint) ([]ReservationView, error)
	GetByID(ctx context.Context, reservationID, userID uint) (*ReservationView, error)
	ListAllActive(ctx context.Context) ([]ReservationView, error)
}

type reservationService struct {
	store  repository.Store
	clock  util.Clock
	logger *zap.Logger
}

var _ ReservationService = (*reservationService)(nil)

func NewReservationService(store repository.Store, clock util.Clock, logger *zap.Logger) *reservationService {
	return &reservationService{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// Book reserves seatNumbers of a showtime for a user. The seat rows are
// locked for the whole transaction; any failure leaves every seat and
// reservation untouched.
func (s *reservationService) Book(ctx context.Context, userID, showtimeID uint, seatNumbers []string) (*ReservationView, error) {
	started := time.Now()
	numbers := normalizeSeatNumbers(seatNumbers)
	if len(numbers) == 0 {
		return nil, fmt.Errorf("%w: at least one seat number is required", service.ErrInvalidInput)
	}

	var view ReservationView
	err := s.store.WithinTx(ctx, func(repos repository.Repos) error {
		showtime, err := repos.Showtimes.GetByID(ctx, showtimeID)
		if err != nil {
			return notFound(err, "showtime %d", showtimeID)
		}
		now := s.clock.Now()
		if !showtime.StartAt.After(now) {
			return fmt.Errorf("%w: cannot book seats for past showtimes", service.ErrInvalidState)
		}
		user, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return notFound(err, "user %d", userID)
		}

		seats, err := repos.Seats.LockByNumbers(ctx, showtimeID, numbers)
		if err != nil {
			return err
		}
		if len(seats) != len(numbers) {
			return fmt.Errorf("%w: one or more seats not found for showtime %d", service.ErrInvalidState, showtimeID)
		}
		for _, seat := range seats {
			if seat.Booked {
				return fmt.Errorf("%w: seat %s is already booked", service.ErrConflict, seat.SeatNumber)
			}
		}

		if err := repos.Seats.SetBooked(ctx, seats, true); err != nil {
			return err
		}
		seatIDs := make([]uint, 0, len(seats))
		for _, seat := range seats {
			seatIDs = append(seatIDs, seat.ID)
		}
		reservation := &model.Reservation{
			UserID:     userID,
			ShowtimeID: showtimeID,
			ReservedAt: now,
			TotalPrice: SeatPrice * float64(len(seats)),
			Cancelled:  false,
		}
		if err := repos.Reservations.Create(ctx, reservation, seatIDs); err != nil {
			return err
		}

		reservation.User = *user
		reservation.Showtime = *showtime
		reservation.Seats = seats
		view = NewReservationView(reservation)
		return nil
	})
	err = classifyStoreErr(err)
	metrics.ObserveReservation("book", err, started)
	if err != nil {
		s.logFailure("book", err,
			zap.Uint("user_id", userID),
			zap.Uint("showtime_id", showtimeID),
			zap.Strings("seats", numbers))
		return nil, err
	}

	s.logger.Info("seats booked",
		zap.Uint("reservation_id", view.ID),
		zap.Uint("user_id", userID),
		zap.Uint("showtime_id", showtimeID),
		zap.Strings("seats", view.SeatNumbers))
	return &view, nil
}

// Cancel releases the seats of a reservation. It takes no seat lock: the
// conditional cancel update and the seat version check guard it instead.
func (s *reservationService) Cancel(ctx context.Context, reservationID, userID uint) (*ReservationView, error) {
	started := time.Now()

	var view ReservationView
	err := s.store.WithinTx(ctx, func(repos repository.Repos) error {
		reservation, err := repos.Reservations.GetByID(ctx, reservationID)
		if err != nil {
			return notFound(err, "reservation %d", reservationID)
		}
		if reservation.UserID != userID {
			return fmt.Errorf("%w: you can only cancel your own reservations", service.ErrUnauthorized)
		}
		if reservation.Cancelled {
			return fmt.Errorf("%w: reservation is already cancelled", service.ErrInvalidState)
		}
		if !reservation.Showtime.StartAt.After(s.clock.Now()) {
			return fmt.Errorf("%w: cannot cancel reservations for past showtimes", service.ErrInvalidState)
		}

		if err := repos.Reservations.MarkCancelled(ctx, reservation.ID); err != nil {
			return err
		}
		if err := repos.Seats.SetBooked(ctx, reservation.Seats, false); err != nil {
			return err
		}

		reservation.Cancelled = true
		view = NewReservationView(reservation)
		return nil
	})
	err = classifyStoreErr(err)
	metrics.ObserveReservation("cancel", err, started)
	if err != nil {
		s.logFailure("cancel", err,
			zap.Uint("reservation_id", reservationID),
			zap.Uint("user_id", userID))
		return nil, err
	}

	s.logger.Info("reservation cancelled",
		zap.Uint("reservation_id", view.ID),
		zap.Uint("user_id", userID),
		zap.Uint("showtime_id", view.ShowtimeID))
	return &view, nil
}

func (s *reservationService) ListActive(ctx context.Context, userID uint) ([]ReservationView, error) {
	reservations, err := s.store.Repos().Reservations.ListActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newReservationViews(reservations), nil
}

func (s *reservationService) ListUpcoming(ctx context.Context, userID uint) ([]ReservationView, error) {
	reservations, err := s.store.Repos().Reservations.ListUpcomingByUserID(ctx, userID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return newReservationViews(reservations), nil
}

func (s *reservationService) GetByID(ctx context.Context, reservationID, userID uint) (*ReservationView, error) {
	reservation, err := s.store.Repos().Reservations.GetByIDAndUserID(ctx, reservationID, userID)
	if err != nil {
		return nil, notFound(err, "reservation %d", reservationID)
	}
	view := NewReservationView(reservation)
	return &view, nil
}

func (s *reservationService) ListAllActive(ctx context.Context) ([]ReservationView, error) {
	reservations, err := s.store.Repos().Reservations.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return newReservationViews(reservations), nil
}

func (s *reservationService) logFailure(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	switch {
	case errors.Is(err, service.ErrConflict):
		s.logger.Warn("reservation conflict", fields...)
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidInput):
		s.logger.Info("reservation rejected", fields...)
	default:
		s.logger.Error("reservation failed", fields...)
	}
}

// notFound turns a repository miss into service.ErrNotFound naming the
// entity; other errors pass through.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", service.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}

// classifyStoreErr surfaces lock-wait failures and lost version races as
// conflicts, and a cancel that lost to a concurrent cancel as invalid state.
func classifyStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrStaleSeat), errors.Is(err, repository.ErrLockTimeout):
		return fmt.Errorf("%w: %v", service.ErrConflict, err)
	case errors.Is(err, repository.ErrAlreadyCancelled):
		return fmt.Errorf("%w: reservation is already cancelled", service.ErrInvalidState)
	}
	return err
}
