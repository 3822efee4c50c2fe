package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"brazadash/internal/domain"
	"brazadash/internal/infrastructure/repo"
)

type capturePublisher struct {
	keys   []string
	events []any
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, key string, event any) error {
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return p.err
}

func TestNotifier_PersistsAndPublishes(t *testing.T) {
	store := repo.NewMemory()
	pub := &capturePublisher{}
	n := &Notifier{Repo: store, Events: pub, Log: zap.NewNop()}
	ctx := context.Background()

	if err := n.Notify(ctx, "cust1", "Order placed", "Your order is in.", domain.NotifyOrder); err != nil {
		t.Fatalf("notify: %v", err)
	}
	list, _ := n.List(ctx, "cust1")
	if len(list) != 1 || list[0].Read {
		t.Fatalf("notifications = %+v", list)
	}
	if len(pub.keys) != 1 || pub.keys[0] != "cust1" {
		t.Fatalf("published keys = %v", pub.keys)
	}
	ev, ok := pub.events[0].(NotificationCreatedEvent)
	if !ok || ev.NotificationID != list[0].ID || ev.Type != "notification.created" {
		t.Fatalf("event = %#v", pub.events[0])
	}

	if err := n.MarkRead(ctx, "cust1", list[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	list, _ = n.List(ctx, "cust1")
	if !list[0].Read {
		t.Fatal("notification not marked read")
	}
}

func TestNotifier_PublishFailureIsNotFatal(t *testing.T) {
	store := repo.NewMemory()
	n := &Notifier{Repo: store, Events: &capturePublisher{err: errors.New("broker down")}, Log: zap.NewNop()}
	ctx := context.Background()
	if err := n.Notify(ctx, "cust1", "t", "m", domain.NotifyOrder); err != nil {
		t.Fatalf("notify: %v", err)
	}
	list, _ := n.List(ctx, "cust1")
	if len(list) != 1 {
		t.Fatalf("notifications = %d, want 1", len(list))
	}
	err := n.Notify(ctx, "", "t", "m", domain.NotifyOrder)
	assertErr[domain.ErrValidation](t, err)
}
