package notify

import (
	"encoding/json"
	"time"
)

const (
	TopicNotifications = "shop.notifications"

	EventNotificationRequested = "NotificationRequested"
)

type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

type MessagePayload struct {
	Address  string `json:"address"`
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
	HTMLBody string `json:"html_body"`
}

// PartitionKey keeps all notifications to one address in order.
func PartitionKey(address string) []byte { return []byte(address) }
