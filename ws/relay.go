package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay publishes room and admin events on a Redis channel and delivers every
// event it receives to the local registry, so connections held by other processes
// get them too. Local delivery happens only through the subscription.
type RedisRelay struct {
	client  *redis.Client
	channel string
	local   *Registry
	log     *zap.Logger
}

type relayFrame struct {
	Target string          `json:"target"` // "room" or "admin"
	RoomID string          `json:"roomId,omitempty"`
	Frame  json.RawMessage `json:"frame"`
}

const (
	relayTargetRoom  = "room"
	relayTargetAdmin = "admin"
)

func NewRedisRelay(client *redis.Client, channel string, local *Registry, log *zap.Logger) *RedisRelay {
	if log == nil {
		log = zap.NewNop()
	}
	if channel == "" {
		channel = "chat:events"
	}
	return &RedisRelay{client: client, channel: channel, local: local, log: log}
}

func (r *RedisRelay) BroadcastToRoom(roomID, event string, payload any) error {
	return r.publish(relayTargetRoom, roomID, event, payload)
}

func (r *RedisRelay) BroadcastToAdmins(event string, payload any) error {
	return r.publish(relayTargetAdmin, "", event, payload)
}

func (r *RedisRelay) publish(target, roomID, event string, payload any) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}
	b, err := json.Marshal(relayFrame{Target: target, RoomID: roomID, Frame: frame})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, b).Err(); err != nil {
		return fmt.Errorf("relay publish: %w", err)
	}
	return nil
}

// Run subscribes and delivers until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("relay subscribe: %w", err)
	}
	r.log.Info("relay subscribed", zap.String("channel", r.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := r.deliver([]byte(msg.Payload)); err != nil {
				r.log.Warn("relay frame dropped", zap.Error(err))
			}
		}
	}
}

func (r *RedisRelay) deliver(raw []byte) error {
	var f relayFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return err
	}
	switch f.Target {
	case relayTargetRoom:
		if f.RoomID == "" {
			return fmt.Errorf("room frame without room id")
		}
		r.local.deliver(RoomGroup(f.RoomID), f.Frame)
	case relayTargetAdmin:
		r.local.deliver(AdminGroup, f.Frame)
	default:
		return fmt.Errorf("unknown relay target %q", f.Target)
	}
	return nil
}
