package service

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/displaydb/internal/queue"
)

// Publisher delivers inventory events.  Implementations must not panic;
// the inventory logs a returned error and carries on.
type Publisher interface {
    Publish(ctx context.Context, ev queue.InventoryEvent) error
}

// AMQPPublisher publishes events to a durable RabbitMQ queue.  A
// connection is dialled per event: changes come from one operator at
// console speed.
type AMQPPublisher struct {
    url   string
    queue string
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url, queueName string) *AMQPPublisher {
    return &AMQPPublisher{url: url, queue: queueName}
}

// Publish sends ev as a persistent JSON message routed to the queue.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.InventoryEvent) error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return err
    }
    defer func() { _ = ch.Close() }()

    // Idempotent; durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        p.queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    return ch.PublishWithContext(ctx,
        "",      // default exchange
        p.queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Timestamp:    time.Now().UTC(),
            Body:         body,
        },
    )
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, queue.InventoryEvent) error { return nil }
