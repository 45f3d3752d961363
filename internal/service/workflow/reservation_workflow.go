package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/internal/mq"
	"github.com/qs-lzh/movie-booking/internal/service/domain"
)

const publishTimeout = 5 * time.Second

type EventPublisher interface {
	Publish(ctx context.Context, queueName string, message any) error
}

// ReservationWorkflow runs the side effects of a committed booking or
// cancellation: seat-map cache invalidation and an event on the queue.
// Side-effect failures are logged and never undo the committed change.
type ReservationWorkflow struct {
	ReservationService domain.ReservationService

	publisher EventPublisher
	cache     domain.SeatCache
	logger    *zap.Logger
}

// NewReservationWorkflow accepts a nil publisher and a nil cache.
func NewReservationWorkflow(reservationService domain.ReservationService, publisher EventPublisher, cache domain.SeatCache, logger *zap.Logger) *ReservationWorkflow {
	return &ReservationWorkflow{
		ReservationService: reservationService,
		publisher:          publisher,
		cache:              cache,
		logger:             logger,
	}
}

func (w *ReservationWorkflow) Book(ctx context.Context, userID, showtimeID uint, seatNumbers []string) (*domain.ReservationView, error) {
	view, err := w.ReservationService.Book(ctx, userID, showtimeID, seatNumbers)
	if err != nil {
		return nil, err
	}

	w.invalidate(ctx, view.ShowtimeID)
	w.publish(ctx, mq.ReservationBookedQueue, mq.ReservationBookedMessage{
		ReservationID: view.ID,
		UserID:        view.UserID,
		ShowtimeID:    view.ShowtimeID,
		MovieTitle:    view.MovieTitle,
		SeatNumbers:   view.SeatNumbers,
		TotalPrice:    view.TotalPrice,
		BookedAt:      view.ReservationTimestamp,
	})
	return view, nil
}

func (w *ReservationWorkflow) Cancel(ctx context.Context, reservationID, userID uint) (*domain.ReservationView, error) {
	view, err := w.ReservationService.Cancel(ctx, reservationID, userID)
	if err != nil {
		return nil, err
	}

	w.invalidate(ctx, view.ShowtimeID)
	w.publish(ctx, mq.ReservationCancelledQueue, mq.ReservationCancelledMessage{
		ReservationID: view.ID,
		UserID:        view.UserID,
		ShowtimeID:    view.ShowtimeID,
		SeatNumbers:   view.SeatNumbers,
	})
	return view, nil
}

func (w *ReservationWorkflow) invalidate(ctx context.Context, showtimeID uint) {
	if w.cache == nil {
		return
	}
	if err := w.cache.Invalidate(context.WithoutCancel(ctx), showtimeID); err != nil {
		w.logger.Warn("seat cache invalidation failed", zap.Uint("showtime_id", showtimeID), zap.Error(err))
	}
}

func (w *ReservationWorkflow) publish(ctx context.Context, queueName string, message any) {
	if w.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := w.publisher.Publish(ctx, queueName, message); err != nil {
		w.logger.Error("failed to publish reservation event", zap.String("queue", queueName), zap.Error(err))
	}
}
