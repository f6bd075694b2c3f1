package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/croabboard/internal/logging"
)

// DefaultQueue is the durable queue events are published to.
const DefaultQueue = "croabboard.events"

// Publisher publishes events to RabbitMQ. Each Publish dials its own
// connection; events are rare (one per lifecycle change) so no pool is kept.
type Publisher struct {
    URL   string
    Queue string
    Log   logging.Logger
}

func NewPublisher(url, queue string, log logging.Logger) *Publisher {
    if queue == "" {
        queue = DefaultQueue
    }
    return &Publisher{URL: url, Queue: queue, Log: log}
}

// Publish sends ev as a persistent JSON message. Errors are logged and
// returned so the caller can choose to ignore them.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        p.Log.Warn(ctx, "rabbitmq: dial failed", "err", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Log.Warn(ctx, "rabbitmq: channel open failed", "err", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        p.Queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        p.Log.Warn(ctx, "rabbitmq: queue declare failed", "err", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",      // default exchange
        p.Queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        pub,
    ); err != nil {
        p.Log.Warn(ctx, "rabbitmq: publish failed", "err", err, "type", ev.Type)
        return err
    }
    return nil
}
