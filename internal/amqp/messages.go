package amqp

import (
	"encoding/json"
	"time"
)

// NotificationMessage is the job handed off to the notification worker. The
// producer never waits for delivery; the worker owns retries and failure
// logging. AlertID is set when the notification corresponds to a persisted
// alert row, so the worker can flip its notified flag after delivery.
type NotificationMessage struct {
	AlertID   string    `json:"alert_id,omitempty"`
	OwnerID   string    `json:"owner_id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// NewNotificationMessage creates a notification job for an owner.
func NewNotificationMessage(ownerID, subject, body string) *NotificationMessage {
	return &NotificationMessage{
		OwnerID:   ownerID,
		Subject:   subject,
		Body:      body,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON decodes a message from JSON bytes.
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
