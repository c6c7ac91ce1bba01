package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/davidokumbo/cyberdocs/pkg/logger"
)

// Publisher enqueues email messages on the broker.  Publishing failures are
// logged and returned so callers can decide whether the request should still
// succeed (password reset does; contact form does not).
type Publisher struct {
	URL string
}

func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// Publish marshals the message and delivers it to the durable email queue.
// Connections are per-call; outbound mail volume is a handful of messages a
// day, nowhere near where channel reuse would matter.
func (p *Publisher) Publish(ctx context.Context, msg EmailMessage) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		lg := logger.Get()
		lg.Error().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		lg := logger.Get()
		lg.Error().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(EmailQueueName, true, false, false, false, nil); err != nil {
		lg := logger.Get()
		lg.Error().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	if msg.EnqueuedAt.IsZero() {
		msg.EnqueuedAt = time.Now().UTC()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    msg.EnqueuedAt,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", EmailQueueName, false, false, pub); err != nil {
		lg := logger.Get()
		lg.Error().Err(err).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
