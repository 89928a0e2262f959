package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-shop-orders.git/internal/kafka"
	"github.com/ariefcatur/go-shop-orders.git/internal/redisx"
)

// Mailer is the SMTP-shaped seam the worker hands rendered mail to.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// LogMailer stands in where no real mail transport is wired up.
type LogMailer struct{}

func (LogMailer) SendMail(_ context.Context, to, subject, _, _ string) error {
	log.Printf("mail delivered: to=%s subject=%q", to, subject)
	return nil
}

// Deduper guards against redelivery; Kafka gives at-least-once.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type RedisDeduper struct {
	R       *redis.Client
	Service string
}

func (d *RedisDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	key := fmt.Sprintf(redisx.KeyDedup, d.Service, eventID)
	return redisx.Exists(ctx, d.R, key)
}

func (d *RedisDeduper) Mark(ctx context.Context, eventID string) error {
	key := fmt.Sprintf(redisx.KeyDedup, d.Service, eventID)
	return d.R.Set(ctx, key, "1", redisx.TTLDedup).Err()
}

type Worker struct {
	Dedup  Deduper
	Mailer Mailer
}

// HandleNotification is wired as the consumer handler. Returning nil commits
// the offset; a mailer failure leaves the message uncommitted for redelivery.
func (w *Worker) HandleNotification(ctx context.Context, m kafkago.Message) error {
	var env Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != EventNotificationRequested {
		return nil // ignore
	}

	if seen, _ := w.Dedup.Seen(ctx, env.EventID); seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[MessagePayload](env.Payload)
	if err != nil {
		return err
	}
	if err := w.Mailer.SendMail(ctx, p.Address, p.Subject, p.TextBody, p.HTMLBody); err != nil {
		return err
	}
	_ = w.Dedup.Mark(ctx, env.EventID)
	return nil
}
