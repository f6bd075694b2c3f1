package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/croabboard/internal/logging"
    "github.com/iliyamo/croabboard/internal/model"
    "github.com/iliyamo/croabboard/internal/repository"
)

// Consumer reads the events queue and writes each event to audit_log.
type Consumer struct {
    URL   string
    Queue string
    Audit repository.AuditRepository
    Log   logging.Logger
}

func NewConsumer(url, queue string, audit repository.AuditRepository, log logging.Logger) *Consumer {
    if queue == "" {
        queue = DefaultQueue
    }
    return &Consumer{URL: url, Queue: queue, Audit: audit, Log: log}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled. Broker
// failures trigger a reconnect with exponential backoff (capped at 30s).
// Messages that cannot be handled are rejected without requeue to avoid
// tight redelivery loops.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.Warn(ctx, "audit-consumer: failed to dial broker", "err", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.Warn(ctx, "audit-consumer: consume loop ended, reconnecting", "err", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.Warn(ctx, "audit-consumer: set QoS failed", "err", err)
    }

    if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handleMessage(ctx, d.Body); err != nil {
                c.Log.Error(ctx, "audit-consumer: handle message failed", "err", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
    var ev Event
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" {
        return errors.New("event without type")
    }
    return recordAudit(ctx, c.Audit, ev, body)
}

// recordAudit writes ev to the audit log, keeping the raw payload as details.
func recordAudit(ctx context.Context, audit repository.AuditRepository, ev Event, raw []byte) error {
    entry := model.AuditEntry{
        Username:  ev.Username,
        Action:    ev.Type,
        IPAddress: ev.IPAddress,
        UserAgent: ev.UserAgent,
        Details:   raw,
        CreatedAt: ev.OccurredAt,
    }
    if ev.UserID != 0 {
        uid := ev.UserID
        entry.UserID = &uid
    }
    if entry.CreatedAt.IsZero() {
        entry.CreatedAt = time.Now().UTC()
    }
    if err := audit.Insert(ctx, entry); err != nil {
        return fmt.Errorf("insert audit: %w", err)
    }
    return nil
}

// AuditSink records events straight into the audit log without a broker.
// It is used when no broker is configured.
type AuditSink struct {
    Audit repository.AuditRepository
}

func (s AuditSink) Publish(ctx context.Context, ev Event) error {
    raw, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    return recordAudit(ctx, s.Audit, ev, raw)
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
