package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// reservationQueues are declared at startup, in this order.
var reservationQueues = []string{
	ReservationBookedQueue,
	ReservationCancelledQueue,
}

// InitQueues declares every reservation event queue. Messages left from a
// previous run are kept.
func InitQueues(mqConn *amqp.Connection) error {
	ch, err := NewChannel(mqConn)
	if err != nil {
		return err
	}
	defer ch.Close()

	for _, queue := range reservationQueues {
		if err := SetupImmediateQueue(ch, queue); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
	}
	return nil
}

func NewMQConn(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	return conn, nil
}

func NewChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	return ch, nil
}

// SetupImmediateQueue declares a durable, non-exclusive queue bound to the
// default exchange.
func SetupImmediateQueue(ch *amqp.Channel, queueName string) error {
	_, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	return err
}
