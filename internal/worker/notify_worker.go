// Package worker consumes notification jobs from the queue and delivers
// them by email.
package worker

import (
	"context"
	"fmt"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/log"
)

type userGetter interface {
	GetUser(ctx context.Context, id string) (core.User, error)
}

type alertMarker interface {
	MarkAlertNotified(ctx context.Context, id string) error
}

type emailSender interface {
	Send(to, subject, body string) error
}

// NotifyWorker turns queued notification messages into emails. A returned
// error makes the consumer nack and requeue the delivery.
type NotifyWorker struct {
	users  userGetter
	alerts alertMarker
	sender emailSender
	logger *log.Logger
}

func NewNotifyWorker(users userGetter, alerts alertMarker, sender emailSender, logger *log.Logger) *NotifyWorker {
	return &NotifyWorker{
		users:  users,
		alerts: alerts,
		sender: sender,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleNotification processes a single queued notification. The recipient
// address comes from the user record, not the message. After a successful
// send the originating alert row, if any, is flagged as notified; a failure
// to flag it is logged but does not requeue the message.
func (w *NotifyWorker) HandleNotification(ctx context.Context, msg *amqp.NotificationMessage) error {
	w.logger.InfoContext(ctx, "Processing notification",
		log.FieldOwnerID, msg.OwnerID,
		log.FieldAlertID, msg.AlertID)

	user, err := w.users.GetUser(ctx, msg.OwnerID)
	if err != nil {
		return fmt.Errorf("get user %s: %w", msg.OwnerID, err)
	}

	body := composeBody(user.FirstName, msg.Body)
	if err := w.sender.Send(user.Email, msg.Subject, body); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	if msg.AlertID != "" {
		if err := w.alerts.MarkAlertNotified(ctx, msg.AlertID); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mark alert notified",
				log.FieldError, err,
				log.FieldAlertID, msg.AlertID)
		}
	}

	w.logger.InfoContext(ctx, "Notification delivered",
		log.FieldOwnerID, msg.OwnerID,
		log.FieldEmail, user.Email)
	return nil
}

func composeBody(firstName, content string) string {
	greeting := "Hello,"
	if firstName != "" {
		greeting = "Hello " + firstName + ","
	}
	return greeting + "\n\n" + content + "\n\nBest regards,\nThe SpendWise Team"
}
