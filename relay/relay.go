// Package relay serves requests published on a Redis channel and publishes
// the replies back.
package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"lmsassist/dom"
	"lmsassist/router"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReplySuffix is appended to the request channel when an envelope names no
// replyTo channel.
const ReplySuffix = ":replies"

// Handler runs one request.
type Handler interface {
	Handle(ctx context.Context, e router.Envelope) (router.Reply, error)
}

// Publisher is the subset of the Redis client used to send replies.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Relay consumes envelopes from a channel one at a time, so requests against
// the same page never interleave.
type Relay struct {
	client  *redis.Client
	pub     Publisher
	channel string
	handler Handler
	log     *zap.Logger
}

// NewClient creates a Redis client
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// New creates a relay that serves channel through handler and publishes
// replies with client.
func New(client *redis.Client, channel string, handler Handler, log *zap.Logger) *Relay {
	return &Relay{
		client:  client,
		pub:     client,
		channel: channel,
		handler: handler,
		log:     log,
	}
}

// Run subscribes and serves until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.log.Info("relay listening", zap.String("channel", r.channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("subscription to %s closed", r.channel)
			}
			if err := r.handle(ctx, msg.Payload); err != nil {
				r.log.Error("failed to handle message", zap.Error(err))
			}
		}
	}
}

func (r *Relay) handle(ctx context.Context, payload string) error {
	var e router.Envelope
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		r.log.Warn("dropping malformed envelope", zap.Error(err))
		return nil
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	rep, err := r.handler.Handle(ctx, e)
	if err != nil {
		r.log.Warn("request failed", zap.String("id", e.ID), zap.Error(err))
		rep = router.Reply{ID: e.ID, Error: err.Error()}
	}
	if rep.Mutations == nil {
		rep.Mutations = []dom.Mutation{}
	}

	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to encode reply %s: %w", e.ID, err)
	}

	channel := e.ReplyTo
	if channel == "" {
		channel = r.channel + ReplySuffix
	}
	if err := r.pub.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish reply %s: %w", e.ID, err)
	}
	return nil
}
