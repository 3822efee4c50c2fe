package events

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "notification-events", nil)
	ev := map[string]string{"type": "notification.created", "user_id": "u1"}
	if err := p.Publish(context.Background(), "u1", ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "u1" {
		t.Fatalf("key = %q", w.msgs[0].Key)
	}
	var got map[string]string
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("value: %v", err)
	}
	if got["type"] != "notification.created" {
		t.Fatalf("value = %v", got)
	}
	_ = p.Close()
	if !w.closed {
		t.Fatal("writer not closed")
	}
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newProducer(w, "t", nil)
	if err := p.Publish(context.Background(), "k", struct{}{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestProducer_MarshalError(t *testing.T) {
	p := newProducer(&fakeWriter{}, "t", nil)
	if err := p.Publish(context.Background(), "k", make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestNewWriter_FlushesPromptly(t *testing.T) {
	addrs := splitBrokers(" kafka-1:9092, ,kafka-2:9092,")
	if !reflect.DeepEqual(addrs, []string{"kafka-1:9092", "kafka-2:9092"}) {
		t.Fatalf("brokers = %q", addrs)
	}
	w := newWriter(addrs, "notification-events")
	defer w.Close()
	if w.BatchTimeout <= 0 || w.BatchTimeout > 50*time.Millisecond {
		t.Fatalf("batch timeout = %v, want a few ms", w.BatchTimeout)
	}
	if w.Topic != "notification-events" || w.Addr == nil {
		t.Fatalf("writer = topic %q addr %v", w.Topic, w.Addr)
	}
	if _, ok := w.Balancer.(*kafka.Hash); !ok {
		t.Fatalf("balancer = %T, want key hashing", w.Balancer)
	}
}
