package bridge

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bizdesk/realtime/src/types"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBridge relays deliveries between server instances via Redis
// pub/sub. Delivery stays fire-and-forget end to end: a dropped Redis
// message is a missed notification, same as a dropped local one.
type RedisBridge struct {
	client     *redis.Client
	prefix     string
	instanceID string
	local      LocalDeliverer
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	active bool
}

// NewRedisBridge creates a bridge over the given Redis configuration.
func NewRedisBridge(cfg *RedisConfig, local LocalDeliverer, logger zerolog.Logger) *RedisBridge {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithCancel(context.Background())

	return &RedisBridge{
		client:     client,
		prefix:     cfg.Prefix,
		instanceID: uuid.New().String(),
		local:      local,
		logger:     logger.With().Str("component", "redis-bridge").Logger(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start subscribes to the delivery channel and begins relaying.
func (b *RedisBridge) Start() error {
	if err := b.client.Ping(b.ctx).Err(); err != nil {
		return err
	}

	channel := b.prefix + "deliveries"
	sub := b.client.Subscribe(b.ctx, channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(b.ctx); err != nil {
		return err
	}

	b.mu.Lock()
	b.active = true
	b.mu.Unlock()

	b.wg.Add(1)
	go b.listen(sub)

	b.logger.Info().
		Str("instance_id", b.instanceID).
		Str("channel", channel).
		Msg("redis bridge started")
	return nil
}

// Publish sends a delivery to all other instances via Redis.
func (b *RedisBridge) Publish(target types.Target, n types.Notification) error {
	env := envelope{
		InstanceID: b.instanceID,
		Target:     encodeTarget(target),
		Payload:    n,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	channel := b.prefix + "deliveries"
	return b.client.Publish(b.ctx, channel, data).Err()
}

// Stop unsubscribes and closes the Redis connection.
func (b *RedisBridge) Stop() error {
	b.mu.Lock()
	b.active = false
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
	return b.client.Close()
}

// Available reports whether the bridge is connected.
func (b *RedisBridge) Available() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}

// listen reads deliveries from the Redis subscription and hands them
// to the local router.
func (b *RedisBridge) listen(sub *redis.PubSub) {
	defer b.wg.Done()
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handleRedisMessage(msg)
		case <-b.ctx.Done():
			return
		}
	}
}

// handleRedisMessage decodes an envelope and forwards non-self
// deliveries to the local router.
func (b *RedisBridge) handleRedisMessage(msg *redis.Message) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		b.logger.Error().Err(err).Msg("failed to decode redis message")
		return
	}

	// Skip deliveries that originated from this instance.
	if env.InstanceID == b.instanceID {
		return
	}

	target, err := env.Target.decode()
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to decode delivery target")
		return
	}

	b.logger.Debug().
		Str("from_instance", env.InstanceID).
		Str("target_kind", env.Target.Kind).
		Msg("relaying delivery from redis")

	b.local.DeliverLocal(target, env.Payload)
}
