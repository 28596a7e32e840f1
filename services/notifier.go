package services

import (
	"context"
	"sync"
	"time"

	"github.com/goktugarikci/galeryBlog-sub000/entity"

	"go.uber.org/zap"
)

// Notifier turns domain events from other parts of the store into admin notifications.
// Calls return immediately and never report delivery failures to the caller.
type Notifier interface {
	NotifyContact(ctx context.Context, c *entity.ContactMessage)
	NotifyOrder(ctx context.Context, o OrderCreated)
}

// OrderCreated is the event published by the order module when a checkout completes.
type OrderCreated struct {
	OrderID      string    `json:"orderId"`
	CustomerName string    `json:"customerName"`
	Total        int64     `json:"total"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"createdAt"`
}

type AdminNotifier struct {
	out Broadcaster
	log *zap.Logger
	wg  sync.WaitGroup
}

func NewAdminNotifier(out Broadcaster, log *zap.Logger) *AdminNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminNotifier{out: out, log: log}
}

func (n *AdminNotifier) NotifyContact(_ context.Context, c *entity.ContactMessage) {
	if c == nil {
		return
	}
	n.fire(EventAdminNewContact, c)
}

func (n *AdminNotifier) NotifyOrder(_ context.Context, o OrderCreated) {
	n.fire(EventAdminNewOrder, o)
}

func (n *AdminNotifier) fire(event string, payload any) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.log.Error("admin notification panicked", zap.String("event", event), zap.Any("panic", r))
			}
		}()
		if err := n.out.BroadcastToAdmins(event, payload); err != nil {
			n.log.Warn("admin notification failed", zap.String("event", event), zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight notifications are handed to the broadcaster.
func (n *AdminNotifier) Wait() {
	n.wg.Wait()
}
