package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDeduper struct {
	seen map[string]bool
}

func (d *memDeduper) Seen(_ context.Context, eventID string) (bool, error) {
	return d.seen[eventID], nil
}

func (d *memDeduper) Mark(_ context.Context, eventID string) error {
	d.seen[eventID] = true
	return nil
}

type recordingMailer struct {
	sent []MessagePayload
	err  error
}

func (m *recordingMailer) SendMail(_ context.Context, to, subject, text, html string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, MessagePayload{Address: to, Subject: subject, TextBody: text, HTMLBody: html})
	return nil
}

func notificationMessage(t *testing.T, eventID string, p MessagePayload) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(p)
	require.NoError(t, err)
	env := Envelope{
		EventID:      eventID,
		EventType:    EventNotificationRequested,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "orders-api",
		Payload:      payload,
	}
	value, err := json.Marshal(env)
	require.NoError(t, err)
	return kafkago.Message{Key: PartitionKey(p.Address), Value: value}
}

func TestHandleNotificationSendsMail(t *testing.T) {
	dedup := &memDeduper{seen: map[string]bool{}}
	mailer := &recordingMailer{}
	w := &Worker{Dedup: dedup, Mailer: mailer}

	p := MessagePayload{Address: "a@example.com", Subject: "Your Order Has Been Placed!", TextBody: "t", HTMLBody: "<p>t</p>"}
	err := w.HandleNotification(context.Background(), notificationMessage(t, "evt-1", p))
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, p, mailer.sent[0])
	assert.True(t, dedup.seen["evt-1"], "processed events are marked")
}

func TestHandleNotificationDeduplicates(t *testing.T) {
	dedup := &memDeduper{seen: map[string]bool{"evt-1": true}}
	mailer := &recordingMailer{}
	w := &Worker{Dedup: dedup, Mailer: mailer}

	msg := notificationMessage(t, "evt-1", MessagePayload{Address: "a@example.com", Subject: "s"})
	require.NoError(t, w.HandleNotification(context.Background(), msg))
	assert.Empty(t, mailer.sent, "redelivered events must not mail twice")
}

func TestHandleNotificationIgnoresOtherTypes(t *testing.T) {
	dedup := &memDeduper{seen: map[string]bool{}}
	mailer := &recordingMailer{}
	w := &Worker{Dedup: dedup, Mailer: mailer}

	env := Envelope{EventID: "evt-2", EventType: "SomethingElse", Payload: json.RawMessage(`{}`)}
	value, err := json.Marshal(env)
	require.NoError(t, err)

	require.NoError(t, w.HandleNotification(context.Background(), kafkago.Message{Value: value}))
	assert.Empty(t, mailer.sent)
	assert.False(t, dedup.seen["evt-2"])
}

func TestHandleNotificationMailerFailure(t *testing.T) {
	dedup := &memDeduper{seen: map[string]bool{}}
	mailer := &recordingMailer{err: errors.New("smtp down")}
	w := &Worker{Dedup: dedup, Mailer: mailer}

	msg := notificationMessage(t, "evt-3", MessagePayload{Address: "a@example.com", Subject: "s"})
	err := w.HandleNotification(context.Background(), msg)
	require.Error(t, err, "failure must surface so the offset stays uncommitted")
	assert.False(t, dedup.seen["evt-3"], "failed events stay unmarked for retry")
}

func TestHandleNotificationBadJSON(t *testing.T) {
	w := &Worker{Dedup: &memDeduper{seen: map[string]bool{}}, Mailer: &recordingMailer{}}
	err := w.HandleNotification(context.Background(), kafkago.Message{Value: []byte("{not json")})
	assert.Error(t, err)
}
