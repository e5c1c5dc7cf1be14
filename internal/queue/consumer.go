package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// AuditFile is the file, inside the consumer's log directory, that
// receives one line per inventory event.
const AuditFile = "inventory.log"

// Consumer drains the inventory event queue into an append-only audit log.
type Consumer struct {
    url    string
    queue  string
    logDir string
    log    *zap.Logger
}

// NewConsumer returns a Consumer for the broker at url.
func NewConsumer(url, queue, logDir string, log *zap.Logger) *Consumer {
    return &Consumer{url: url, queue: queue, logDir: logDir, log: log}
}

// Run connects to the broker, declares the queue (durable) and consumes
// until ctx is cancelled.  Broken connections are redialled with an
// exponential backoff capped at thirty seconds.  Messages that cannot be
// decoded or written are rejected without requeue so one bad payload
// cannot spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn("audit consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if err := sleep(ctx, backoff); err != nil {
                return err
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return nil
        }
        c.log.Warn("audit consumer: consume loop ended, reconnecting", zap.Error(err))
        if err := sleep(ctx, 2*time.Second); err != nil {
            return err
        }
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warn("audit consumer: set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
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
            if err := c.Handle(d.Body); err != nil {
                c.log.Error("audit consumer: handle message failed", zap.Error(err))
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one message body and appends its audit line.
func (c *Consumer) Handle(body []byte) error {
    var ev InventoryEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Kind == "" {
        return errors.New("event without kind")
    }
    if err := os.MkdirAll(c.logDir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", c.logDir, err)
    }
    f, err := os.OpenFile(filepath.Join(c.logDir, AuditFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open audit log: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
        return fmt.Errorf("write audit log: %w", err)
    }
    return nil
}

// FormatAuditLine renders ev as a single human-friendly line.
func FormatAuditLine(ev InventoryEvent) string {
    return fmt.Sprintf("[%s] %s | serial=%q | scheduler=%q | model=%q\n",
        ev.OccurredAt, ev.Kind, ev.SerialNo, ev.SchedulerSystem, ev.ModelNo)
}

func sleep(ctx context.Context, d time.Duration) error {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-t.C:
        return nil
    }
}
