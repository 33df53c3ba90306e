package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"go.uber.org/zap"
)

// ErrOffline means the device has no open session anywhere reachable.
var ErrOffline = errors.New("push: device offline")

// Transport hands a message to one device.
type Transport interface {
	Deliver(ctx context.Context, device models.Device, msg Message) error
}

// LocalTransport delivers through the sessions held by this process.
type LocalTransport struct {
	hub *Hub
}

func NewLocalTransport(hub *Hub) *LocalTransport {
	return &LocalTransport{hub: hub}
}

func (t *LocalTransport) Deliver(_ context.Context, device models.Device, msg Message) error {
	if t.hub.Send(device.Token, msg) == 0 {
		return ErrOffline
	}
	return nil
}

type envelope struct {
	Device  string  `json:"device"`
	Message Message `json:"message"`
}

// RedisTransport publishes to a channel every instance relays from, so the
// instance holding the device socket delivers it.
type RedisTransport struct {
	rdb     *redis.Client
	channel string
}

func NewRedisTransport(rdb *redis.Client, channel string) *RedisTransport {
	return &RedisTransport{rdb: rdb, channel: channel}
}

func (t *RedisTransport) Deliver(ctx context.Context, device models.Device, msg Message) error {
	data, err := json.Marshal(envelope{Device: device.Token, Message: msg})
	if err != nil {
		return fmt.Errorf("encode push envelope: %w", err)
	}
	receivers, err := t.rdb.Publish(ctx, t.channel, data).Result()
	if err != nil {
		return fmt.Errorf("publish push envelope: %w", err)
	}
	if receivers == 0 {
		return ErrOffline
	}
	return nil
}

// Relay subscribes to the push channel and forwards envelopes to the local hub.
type Relay struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	logger  *zap.Logger
}

func NewRelay(rdb *redis.Client, channel string, hub *Hub, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{rdb: rdb, channel: channel, hub: hub, logger: logger}
}

// Start subscribes and returns once the subscription is confirmed. Messages are
// forwarded until ctx is done.
func (r *Relay) Start(ctx context.Context) error {
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.logger.Info("push relay subscribed", zap.String("channel", r.channel))

	go r.listen(ctx, pubsub)
	return nil
}

func (r *Relay) listen(ctx context.Context, pubsub *redis.PubSub) {
	defer pubsub.Close()
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("push relay stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.forward(msg.Payload)
		}
	}
}

func (r *Relay) forward(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.logger.Warn("malformed push envelope", zap.Error(err))
		return
	}
	if env.Device == "" {
		return
	}
	r.hub.Send(env.Device, env.Message)
}
