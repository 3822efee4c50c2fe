package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"brazadash/internal/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type NotificationCreatedEvent struct {
	EventID        string                  `json:"event_id"`
	Type           string                  `json:"type"`
	NotificationID string                  `json:"notification_id"`
	UserID         string                  `json:"user_id"`
	Kind           domain.NotificationType `json:"kind"`
	Title          string                  `json:"title"`
	Message        string                  `json:"message"`
	Timestamp      time.Time               `json:"timestamp"`
}

// Notifier persists notifications and fans them out as events. Publishing is
// best effort: the stored row is the source of truth.
type Notifier struct {
	Repo   NotificationRepo
	Events EventPublisher
	Log    *zap.Logger
	Now    func() time.Time
}

func (n *Notifier) Notify(ctx context.Context, userID, title, message string, typ domain.NotificationType) error {
	if userID == "" {
		return domain.ErrValidation("notification user required")
	}
	note := &domain.Notification{
		ID:        newID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		CreatedAt: nowOr(n.Now),
	}
	if err := n.Repo.InsertNotification(ctx, note); err != nil {
		return err
	}
	if n.Events == nil {
		return nil
	}
	ev := NotificationCreatedEvent{
		EventID:        newID(),
		Type:           "notification.created",
		NotificationID: note.ID,
		UserID:         note.UserID,
		Kind:           note.Type,
		Title:          note.Title,
		Message:        note.Message,
		Timestamp:      note.CreatedAt,
	}
	if err := n.Events.Publish(ctx, note.UserID, ev); err != nil && n.Log != nil {
		n.Log.Warn("notification event not published",
			zap.String("notification_id", note.ID),
			zap.String("user_id", note.UserID),
			zap.Error(err))
	}
	return nil
}

func (n *Notifier) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	return n.Repo.ListNotifications(ctx, userID)
}

func (n *Notifier) MarkRead(ctx context.Context, userID, id string) error {
	return n.Repo.MarkNotificationRead(ctx, userID, id)
}
