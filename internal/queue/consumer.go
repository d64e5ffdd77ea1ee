package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Notifier receives decoded events. The default one logs maintenance
// requests so administrators see them in the service log.
type Notifier func(ctx context.Context, ev LaptopEvent) error

// LogNotifier returns a Notifier writing one structured line per event.
// Maintenance requests are raised to WARN so they stand out.
func LogNotifier(logger *slog.Logger) Notifier {
	return func(ctx context.Context, ev LaptopEvent) error {
		level := slog.LevelInfo
		if ev.Type == EventMaintenanceRequested {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "laptop event",
			"type", ev.Type,
			"laptop_id", ev.LaptopID,
			"serial", ev.SerialNumber,
			"laptop", ev.Brand+" "+ev.Model,
			"holder_id", ev.HolderID,
			"actor_id", ev.ActorID,
			"at", ev.OccurredAt.Format(time.RFC3339),
		)
		return nil
	}
}

// Consume connects to the broker at url, declares the events queue and hands
// every message to notify until ctx is cancelled. Broken connections are
// redialled with exponential backoff capped at 30s.
func Consume(ctx context.Context, url string, notify Notifier, logger *slog.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.WarnContext(ctx, "events-consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, notify, logger)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.WarnContext(ctx, "events-consumer: consume loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, notify Notifier, logger *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.WarnContext(ctx, "events-consumer: set QoS failed", "err", err)
	}
	if _, err := declare(ch, QueueName); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
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
			if err := HandleMessage(ctx, d.Body, notify); err != nil {
				logger.ErrorContext(ctx, "events-consumer: handle message failed", "err", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one delivery body and passes it to notify.
func HandleMessage(ctx context.Context, body []byte, notify Notifier) error {
	var ev LaptopEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.LaptopID == "" {
		return errors.New("event without type or laptop id")
	}
	return notify(ctx, ev)
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
