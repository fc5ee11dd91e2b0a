// Package queue_publisher publishes domain events to RabbitMQ. Errors are
// logged and returned so callers can ignore failures without interrupting
// the request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/glazia/storefront/internal/logx"
	q "github.com/glazia/storefront/internal/queue"
)

// Publisher dials the broker at URL once per event.
type Publisher struct {
	URL string
}

// NewPublisher returns nil when url is empty, which the login handler
// treats as "no audit events".
func NewPublisher(url string) *Publisher {
	if url == "" {
		return nil
	}
	return &Publisher{URL: url}
}

// PublishAdminLogin publishes ev to the durable admin.login queue as a
// persistent message.
func (p *Publisher) PublishAdminLogin(ctx context.Context, ev q.AdminLoginEvent) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		logx.Warn().Err(err).Msg("rabbitmq: marshal event failed")
		return err
	}
	return p.publish(ctx, q.AdminLoginQueue, body)
}

func (p *Publisher) publish(ctx context.Context, queue string, body []byte) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		logx.Warn().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logx.Warn().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		logx.Warn().Err(err).Str("queue", queue).Msg("rabbitmq: queue declare failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		logx.Warn().Err(err).Str("queue", queue).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
