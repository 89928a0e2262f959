package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-shop-orders.git/internal/kafka"
)

// KafkaNotifier publishes notification requests for the notifier worker to
// deliver. The producer is async; enqueueing never blocks business logic.
type KafkaNotifier struct {
	Producer *kafkax.Producer
	Service  string
}

func (n *KafkaNotifier) Send(ctx context.Context, address, subject, textBody, htmlBody string) error {
	ev := Envelope{
		EventID:      uuid.NewString(),
		EventType:    EventNotificationRequested,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     n.Service,
		Payload: kafkax.MustMarshal(MessagePayload{
			Address:  address,
			Subject:  subject,
			TextBody: textBody,
			HTMLBody: htmlBody,
		}),
	}
	n.Producer.Publish(PartitionKey(address), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventNotificationRequested)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}

// LogNotifier is the fallback when no brokers are configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, address, subject, _, _ string) error {
	log.Printf("notify (log only): to=%s subject=%q", address, subject)
	return nil
}
