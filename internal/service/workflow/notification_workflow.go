package workflow

import (
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/internal/mq"
)

// NotificationWorkflow consumes reservation events and records them in the
// service log.
type NotificationWorkflow struct {
	logger *zap.Logger
}

func NewNotificationWorkflow(logger *zap.Logger) *NotificationWorkflow {
	return &NotificationWorkflow{
		logger: logger,
	}
}

func (w *NotificationWorkflow) Start(mqConn *amqp.Connection) error {
	if err := w.consume(mqConn, mq.ReservationBookedQueue, w.handleBooked); err != nil {
		return err
	}
	if err := w.consume(mqConn, mq.ReservationCancelledQueue, w.handleCancelled); err != nil {
		return err
	}
	return nil
}

func (w *NotificationWorkflow) consume(conn *amqp.Connection, queueName string, handle func(amqp.Delivery) error) error {
	ch, err := mq.NewChannel(conn)
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return err
	}

	go func() {
		for msg := range msgs {
			if err := handle(msg); err != nil {
				w.logger.Error("failed to handle reservation event", zap.String("queue", queueName), zap.Error(err))
			}
		}
	}()

	return nil
}

func (w *NotificationWorkflow) handleBooked(msg amqp.Delivery) error {
	var message mq.ReservationBookedMessage
	if err := json.Unmarshal(msg.Body, &message); err != nil {
		msg.Nack(false, false)
		return err
	}

	w.logger.Info("booking confirmed",
		zap.Uint("reservation_id", message.ReservationID),
		zap.Uint("user_id", message.UserID),
		zap.Uint("showtime_id", message.ShowtimeID),
		zap.String("movie_title", message.MovieTitle),
		zap.Strings("seats", message.SeatNumbers),
		zap.Float64("total_price", message.TotalPrice))

	return msg.Ack(false)
}

func (w *NotificationWorkflow) handleCancelled(msg amqp.Delivery) error {
	var message mq.ReservationCancelledMessage
	if err := json.Unmarshal(msg.Body, &message); err != nil {
		msg.Nack(false, false)
		return err
	}

	w.logger.Info("booking cancelled",
		zap.Uint("reservation_id", message.ReservationID),
		zap.Uint("user_id", message.UserID),
		zap.Uint("showtime_id", message.ShowtimeID),
		zap.Strings("seats", message.SeatNumbers))

	return msg.Ack(false)
}
