package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	notificationExchange   = "customer_notifications"
	notificationQueue      = "customer_notification_queue"
	notificationRoutingKey = "customer.notification"

	dialAttempts = 5
)

type notificationEnvelope struct {
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// RabbitMQNotifier publishes customer notifications to a durable topic
// exchange for downstream delivery channels (email, SMS, ...).
type RabbitMQNotifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewRabbitMQNotifier(url string) (*RabbitMQNotifier, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < dialAttempts; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		time.Sleep(time.Duration(i*i)*time.Second + time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq after %d attempts: %w", dialAttempts, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		notificationExchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", notificationExchange, err)
	}

	queue, err := channel.QueueDeclare(
		notificationQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", notificationQueue, err)
	}

	if err := channel.QueueBind(queue.Name, notificationRoutingKey, notificationExchange, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue %s: %w", notificationQueue, err)
	}

	return &RabbitMQNotifier{conn: conn, channel: channel}, nil
}

func (n *RabbitMQNotifier) Notify(ctx context.Context, message string) error {
	body, err := json.Marshal(notificationEnvelope{
		Message: message,
		SentAt:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = n.channel.PublishWithContext(
		ctx,
		notificationExchange,
		notificationRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (n *RabbitMQNotifier) Close() error {
	if n.channel != nil {
		if err := n.channel.Close(); err != nil {
			return err
		}
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
