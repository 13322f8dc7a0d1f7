package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

const roomEventsChannel = "rooms:events"

// RedisBridge fans room emissions out across server instances via Redis
// pub/sub. Each instance publishes its emissions and replays everyone else's
// into local rooms.
type RedisBridge struct {
	client     *redis.Client
	hub        *Hub
	instanceID string
	pubsub     *redis.PubSub
	ctx        context.Context
	cancel     context.CancelFunc
}

type bridgeEnvelope struct {
	InstanceID string    `json:"instanceId"`
	Event      RoomEvent `json:"event"`
}

// NewRedisBridge creates a bridge bound to a hub. Call Start to begin
// replaying remote events.
func NewRedisBridge(client *redis.Client, hub *Hub, instanceID string) *RedisBridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisBridge{
		client:     client,
		hub:        hub,
		instanceID: instanceID,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Publish sends a room event to the shared channel. Failures are logged and
// swallowed: local delivery already happened.
func (b *RedisBridge) Publish(event RoomEvent) {
	data, err := json.Marshal(bridgeEnvelope{InstanceID: b.instanceID, Event: event})
	if err != nil {
		log.Printf("⚠️ [BRIDGE] Failed to marshal room event: %v", err)
		return
	}

	if err := b.client.Publish(b.ctx, roomEventsChannel, data).Err(); err != nil {
		log.Printf("⚠️ [BRIDGE] Failed to publish room event: %v", err)
	}
}

// Start subscribes to the shared channel and begins replaying remote events
// into local rooms.
func (b *RedisBridge) Start() error {
	b.pubsub = b.client.Subscribe(b.ctx, roomEventsChannel)

	// Wait for subscription confirmation
	if _, err := b.pubsub.Receive(b.ctx); err != nil {
		return err
	}

	go b.processMessages()

	log.Printf("✅ [BRIDGE] Listening for room events (instance: %s)", b.instanceID)
	return nil
}

func (b *RedisBridge) processMessages() {
	ch := b.pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handleMessage(msg)
		}
	}
}

func (b *RedisBridge) handleMessage(msg *redis.Message) {
	var envelope bridgeEnvelope
	if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
		log.Printf("⚠️ [BRIDGE] Failed to unmarshal room event: %v", err)
		return
	}

	// Skip our own events (avoid loops)
	if envelope.InstanceID == b.instanceID {
		return
	}

	b.hub.EmitBridged(envelope.Event)
}

// Stop stops the bridge
func (b *RedisBridge) Stop() error {
	b.cancel()
	if b.pubsub != nil {
		return b.pubsub.Close()
	}
	return nil
}
