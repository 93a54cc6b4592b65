package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Consumer drains the event queues and appends one line per event to an
// outbox file.  It stands in for the mail and notification senders.
type Consumer struct {
	URL     string
	LogPath string
}

// NewConsumer returns a consumer writing to logPath.
func NewConsumer(url, logPath string) *Consumer {
	return &Consumer{URL: url, LogPath: logPath}
}

// Run connects to the broker and consumes both queues until ctx is
// cancelled, reconnecting with exponential backoff when the connection
// drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("notifier: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
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
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("notifier: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
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

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("notifier: set QoS failed")
	}

	type stream struct {
		queue string
		msgs  <-chan amqp.Delivery
	}
	var streams []stream
	for _, q := range []string{PasswordResetQueue, BookingCreatedQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		streams = append(streams, stream{queue: q, msgs: msgs})
	}

	reset, booking := streams[0].msgs, streams[1].msgs
	for {
		var (
			d     amqp.Delivery
			ok    bool
			queue string
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-reset:
			queue = PasswordResetQueue
		case d, ok = <-booking:
			queue = BookingCreatedQueue
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := c.handle(queue, d.Body); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("notifier: handle message failed")
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
}

func (c *Consumer) handle(queue string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return WriteNotification(f, queue, body)
}

// WriteNotification formats one event as a single line and writes it to w.
// The reset link is written because the file plays the role of the mail
// outbox.
func WriteNotification(w io.Writer, queue string, body []byte) error {
	var line string
	switch queue {
	case PasswordResetQueue:
		var ev PasswordResetRequestedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		line = fmt.Sprintf("[%s] Password reset requested | user_id=%s | to=%q | link=%s | expires_at=%s\n",
			ev.RequestedAt, ev.UserID, ev.Email, ev.ResetURL, ev.ExpiresAt)
	case BookingCreatedQueue:
		var ev BookingCreatedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		line = fmt.Sprintf("[%s] Booking created | booking_id=%s | user_id=%s | pet_id=%s | service=%q | when=%s %s | transport=%s | total=%d\n",
			ev.CreatedAt, ev.BookingID, ev.UserID, ev.PetID, ev.ServiceName, ev.BookingDate, ev.BookingTime, ev.TransportOption, ev.TotalAmount)
	default:
		return fmt.Errorf("unknown queue %q", queue)
	}
	_, err := io.WriteString(w, line)
	return err
}
