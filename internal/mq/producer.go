package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher opens a short-lived channel per message; amqp channels are not
// shared between goroutines.
type Publisher struct {
	conn *amqp.Connection
}

func NewPublisher(conn *amqp.Connection) *Publisher {
	return &Publisher{conn: conn}
}

// Publish sends message as persistent JSON to queueName on the default
// exchange.
func (p *Publisher) Publish(ctx context.Context, queueName string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal %T: %w", message, err)
	}

	ch, err := NewChannel(p.conn)
	if err != nil {
		return err
	}
	defer ch.Close()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", queueName, err)
	}
	return nil
}
