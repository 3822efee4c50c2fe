package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the slice of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  *zap.Logger
}

// batchTimeout caps how long a synchronous Publish waits for its batch to
// flush. Notifications are published inline on request paths.
const batchTimeout = 10 * time.Millisecond

// NewProducer writes JSON events to topic on the comma separated brokers.
func NewProducer(brokers, topic string, logger *zap.Logger) *Producer {
	return newProducer(newWriter(splitBrokers(brokers), topic), topic, logger)
}

func newWriter(addrs []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}
}

func splitBrokers(brokers string) []string {
	addrs := []string{}
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	return addrs
}

func newProducer(w messageWriter, topic string, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{writer: w, topic: topic, timeout: 10 * time.Second, logger: logger}
}

// Publish keys the message so all events for one key land on one partition.
func (p *Producer) Publish(ctx context.Context, key string, event any) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.String("topic", p.topic), zap.Error(err))
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	msg := kafka.Message{Key: []byte(key), Value: eventBytes}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", p.topic),
			zap.String("key", key),
			zap.Error(err))
		return err
	}
	p.logger.Debug("event published", zap.String("topic", p.topic), zap.String("key", key))
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// LogPublisher stands in for Kafka when no brokers are configured.
type LogPublisher struct {
	Logger *zap.Logger
}

func (l LogPublisher) Publish(_ context.Context, key string, event any) error {
	if l.Logger != nil {
		l.Logger.Debug("event (no broker configured)", zap.String("key", key), zap.Any("event", event))
	}
	return nil
}

func (LogPublisher) Close() error { return nil }
