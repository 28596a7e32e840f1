package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goktugarikci/galeryBlog-sub000/services"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderConsumer reads order-created events and turns them into admin notifications.
type OrderConsumer struct {
	reader messageReader
	notify services.Notifier
	log    *zap.Logger
}

func NewOrderConsumer(brokers []string, topic, groupID string, notify services.Notifier, log *zap.Logger) *OrderConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	return newOrderConsumer(r, notify, log)
}

func newOrderConsumer(r messageReader, notify services.Notifier, log *zap.Logger) *OrderConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderConsumer{reader: r, notify: notify, log: log}
}

// Run consumes until ctx is cancelled. Malformed events are logged and committed.
func (c *OrderConsumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("kafka fetch", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		if err := c.handleMessage(ctx, m.Value); err != nil {
			c.log.Warn("order event skipped", zap.Int64("offset", m.Offset), zap.Error(err))
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil && !errors.Is(err, context.Canceled) {
			c.log.Error("kafka commit", zap.Error(err))
		}
	}
}

func (c *OrderConsumer) handleMessage(ctx context.Context, value []byte) error {
	var o services.OrderCreated
	if err := json.Unmarshal(value, &o); err != nil {
		return fmt.Errorf("decode order event: %w", err)
	}
	if o.OrderID == "" {
		return errors.New("order event without order id")
	}
	c.notify.NotifyOrder(ctx, o)
	return nil
}

func (c *OrderConsumer) Close() error { return c.reader.Close() }
