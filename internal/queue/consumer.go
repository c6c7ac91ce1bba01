package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/davidokumbo/cyberdocs/pkg/logger"
)

// Sender delivers a rendered email; in production this is the SMTP mailer.
type Sender interface {
	Send(msg EmailMessage) error
}

// StartEmailConsumer connects to RabbitMQ, declares the durable outbound
// email queue, and delivers each message through the sender.  It runs a
// reconnect loop with exponential backoff and never returns in normal
// operation; a message whose delivery fails is rejected without requeue so a
// dead mail server cannot spin the consumer.
func StartEmailConsumer(url string, sender Sender) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			lg := logger.Get()
			lg.Warn().Err(err).Dur("retry_in", backoff).Msg("email-consumer: dial failed")
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn, sender); err != nil {
			lg := logger.Get()
			lg.Warn().Err(err).Msg("email-consumer: consume loop ended; reconnecting")
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, sender Sender) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		lg := logger.Get()
		lg.Warn().Err(err).Msg("email-consumer: set QoS failed")
	}

	if _, err := ch.QueueDeclare(EmailQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(EmailQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleDelivery(d.Body, sender); err != nil {
			lg := logger.Get()
			lg.Error().Err(err).Msg("email-consumer: delivery failed")
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleDelivery(body []byte, sender Sender) error {
	var msg EmailMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := sender.Send(msg); err != nil {
		return fmt.Errorf("send %s to %s: %w", msg.Kind, msg.To, err)
	}
	lg := logger.Get()
	lg.Info().Str("kind", msg.Kind).Str("to", msg.To).Msg("email delivered")
	return nil
}
