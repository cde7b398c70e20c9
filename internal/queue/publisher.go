package queue

import (
    "context"
    "encoding/json"
    "time"

    "github.com/cockroachdb/errors"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/club-seat-reservation/internal/observability"
)

// Publisher sends ticket events to the club.tickets topic exchange.  A
// connection is opened per publish; events are low volume and this keeps
// the request path free of long-lived broker state.  Failures are logged
// and returned so that callers can ignore them without interrupting the
// main request flow.
type Publisher struct {
    url     string
    logger  observability.Logger
    timeout time.Duration
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string, logger observability.Logger) *Publisher {
    return &Publisher{url: url, logger: logger, timeout: 3 * time.Second}
}

// Publish marshals the event and publishes it with the event type as
// routing key.  Messages are marked as persistent.
func (p *Publisher) Publish(ctx context.Context, ev TicketEvent) error {
    err := p.publish(ctx, ev)
    if err != nil {
        observability.RabbitPublishFailures.Inc()
        p.logger.WithError(err).WithField("event", ev.Type).Warn("rabbitmq: publish failed")
    }
    return err
}

func (p *Publisher) publish(ctx context.Context, ev TicketEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return errors.Wrap(err, "marshal event")
    }

    conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.timeout)})
    if err != nil {
        return errors.Wrap(err, "dial")
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return errors.Wrap(err, "channel open")
    }
    defer func() { _ = ch.Close() }()

    // Durable topic exchange, declared idempotently on every publish.
    if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
        return errors.Wrap(err, "exchange declare")
    }

    ctx, cancel := context.WithTimeout(ctx, p.timeout)
    defer cancel()
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.ID,
        Type:         ev.Type,
        Timestamp:    ev.OccurredAt,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, Exchange, ev.Type, false, false, pub); err != nil {
        return errors.Wrap(err, "publish")
    }
    return nil
}
