package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "time"

    "github.com/cockroachdb/errors"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/club-seat-reservation/internal/observability"
)

const ticketLogQueue = "tickets.log"

// LogConsumer binds a durable queue to every ticket event and appends one
// line per event to a log file.  It runs outside the request path.
type LogConsumer struct {
    url    string
    path   string
    logger observability.Logger
}

// NewLogConsumer returns a consumer writing to path (logs/tickets.log when empty).
func NewLogConsumer(url, path string, logger observability.Logger) *LogConsumer {
    if path == "" {
        path = filepath.Join("logs", "tickets.log")
    }
    return &LogConsumer{url: url, path: path, logger: logger}
}

// Run keeps consuming until ctx is cancelled, reconnecting with
// exponential backoff when the broker goes away.
func (c *LogConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.logger.WithError(err).WithField("retry_in", backoff.String()).Warn("ticket-consumer: failed to dial broker")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.logger.WithError(err).Warn("ticket-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *LogConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return errors.Wrap(err, "channel open")
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.logger.WithError(err).Warn("ticket-consumer: set QoS failed")
    }
    if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
        return errors.Wrap(err, "exchange declare")
    }
    if _, err := ch.QueueDeclare(ticketLogQueue, true, false, false, false, nil); err != nil {
        return errors.Wrap(err, "queue declare")
    }
    for _, key := range []string{"tickets.#", "games.#"} {
        if err := ch.QueueBind(ticketLogQueue, key, Exchange, false, nil); err != nil {
            return errors.Wrap(err, "queue bind")
        }
    }

    msgs, err := ch.Consume(ticketLogQueue, "", false, false, false, false, nil)
    if err != nil {
        return errors.Wrap(err, "queue consume")
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handle(d.Body); err != nil {
                c.logger.WithError(err).Error("ticket-consumer: handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *LogConsumer) handle(body []byte) error {
    var ev TicketEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return errors.Wrap(err, "unmarshal")
    }
    if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
        return errors.Wrap(err, "mkdir logs")
    }
    f, err := os.OpenFile(c.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return errors.Wrap(err, "open log file")
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLogLine(ev)); err != nil {
        return errors.Wrap(err, "write log")
    }
    return nil
}

// FormatLogLine renders one event as a single human-friendly log line.
func FormatLogLine(ev TicketEvent) string {
    line := fmt.Sprintf("[%s] %s | id=%s", ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.ID)
    if ev.GameID != 0 {
        line += fmt.Sprintf(" | game_id=%d", ev.GameID)
    }
    if ev.TicketID != 0 {
        line += fmt.Sprintf(" | ticket_id=%d", ev.TicketID)
    }
    if ev.CustomerID != nil {
        line += fmt.Sprintf(" | customer_id=%d", *ev.CustomerID)
    }
    switch ev.Type {
    case TicketsReserved:
        line += fmt.Sprintf(" | reserved=%d/%d", ev.Reserved, ev.Requested)
    case TicketsStatusChanged:
        line += fmt.Sprintf(" | status=%s", ev.Status)
    case GameCreated:
        line += fmt.Sprintf(" | tickets=%d", ev.Tickets)
    }
    if ev.Actor != "" {
        line += fmt.Sprintf(" | actor=%q", ev.Actor)
    }
    return line + "\n"
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
