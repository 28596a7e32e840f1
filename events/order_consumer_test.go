package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goktugarikci/galeryBlog-sub000/entity"
	"github.com/goktugarikci/galeryBlog-sub000/services"

	"github.com/segmentio/kafka-go"
)

type recordingNotifier struct {
	mu     sync.Mutex
	orders []services.OrderCreated
}

func (n *recordingNotifier) NotifyContact(context.Context, *entity.ContactMessage) {}

func (n *recordingNotifier) NotifyOrder(_ context.Context, o services.OrderCreated) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, o)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.orders)
}

type fakeReader struct {
	msgs      chan kafka.Message
	mu        sync.Mutex
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestHandleMessage(t *testing.T) {
	n := &recordingNotifier{}
	c := newOrderConsumer(&fakeReader{}, n, nil)

	err := c.handleMessage(context.Background(), []byte(`{"orderId":"o-1","customerName":"Ada","total":1999,"currency":"EUR"}`))
	if err != nil {
		t.Fatal(err)
	}
	if n.count() != 1 || n.orders[0].Total != 1999 {
		t.Fatalf("orders = %+v", n.orders)
	}

	if err := c.handleMessage(context.Background(), []byte(`not json`)); err == nil {
		t.Fatal("expected decode error")
	}
	if err := c.handleMessage(context.Background(), []byte(`{"total":5}`)); err == nil {
		t.Fatal("expected missing id error")
	}
	if n.count() != 1 {
		t.Fatal("invalid events must not notify")
	}
}

func TestRunCommitsEveryMessage(t *testing.T) {
	n := &recordingNotifier{}
	r := &fakeReader{msgs: make(chan kafka.Message, 2)}
	r.msgs <- kafka.Message{Offset: 1, Value: []byte(`{"orderId":"o-1"}`)}
	r.msgs <- kafka.Message{Offset: 2, Value: []byte(`garbage`)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newOrderConsumer(r, n, nil).Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		r.mu.Lock()
		got := len(r.committed)
		r.mu.Unlock()
		if got == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("committed %d messages", got)
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("run returned %v", err)
	}
	if n.count() != 1 {
		t.Fatalf("notified %d orders", n.count())
	}
}
