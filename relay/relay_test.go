package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"lmsassist/dom"
	"lmsassist/router"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	channel string
	message []byte
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.sent = append(f.sent, published{channel: channel, message: message.([]byte)})
	return redis.NewIntResult(1, f.err)
}

type handlerFunc func(context.Context, router.Envelope) (router.Reply, error)

func (f handlerFunc) Handle(ctx context.Context, e router.Envelope) (router.Reply, error) {
	return f(ctx, e)
}

func newRelay(h Handler, pub Publisher) *Relay {
	return &Relay{pub: pub, channel: "lms", handler: h, log: zap.NewNop()}
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHandle_RepliesOnReplyTo(t *testing.T) {
	pub := &fakePublisher{}
	r := newRelay(handlerFunc(func(_ context.Context, e router.Envelope) (router.Reply, error) {
		assert.Equal(t, "GET_CONTENT", e.Type)
		return router.Reply{ID: e.ID, Result: router.ContentResponse{Content: "body"}, Mutations: []dom.Mutation{}}, nil
	}), pub)

	require.NoError(t, r.handle(context.Background(), `{"id":"42","type":"GET_CONTENT","replyTo":"tab-7"}`))

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "tab-7", pub.sent[0].channel)
	got := decode(t, pub.sent[0].message)
	assert.Equal(t, "42", got["id"])
	assert.Equal(t, map[string]any{"content": "body"}, got["result"])
	assert.Equal(t, []any{}, got["mutations"])
}

func TestHandle_AssignsIDAndDefaultChannel(t *testing.T) {
	pub := &fakePublisher{}
	var seen string
	r := newRelay(handlerFunc(func(_ context.Context, e router.Envelope) (router.Reply, error) {
		seen = e.ID
		return router.Reply{ID: e.ID}, nil
	}), pub)

	require.NoError(t, r.handle(context.Background(), `{"type":"MARK_VIEWED"}`))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "lms:replies", pub.sent[0].channel)
	assert.Equal(t, []any{}, decode(t, pub.sent[0].message)["mutations"])
}

func TestHandle_HandlerError(t *testing.T) {
	pub := &fakePublisher{}
	r := newRelay(handlerFunc(func(context.Context, router.Envelope) (router.Reply, error) {
		return router.Reply{}, errors.New("request has no page")
	}), pub)

	require.NoError(t, r.handle(context.Background(), `{"id":"1","type":"GET_CONTENT"}`))

	got := decode(t, pub.sent[0].message)
	assert.Equal(t, "request has no page", got["error"])
	assert.Nil(t, got["result"])
}

func TestHandle_Malformed(t *testing.T) {
	pub := &fakePublisher{}
	r := newRelay(handlerFunc(func(context.Context, router.Envelope) (router.Reply, error) {
		t.Fatal("handler must not run")
		return router.Reply{}, nil
	}), pub)

	require.NoError(t, r.handle(context.Background(), `{not json`))
	assert.Empty(t, pub.sent)
}

func TestHandle_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	r := newRelay(handlerFunc(func(_ context.Context, e router.Envelope) (router.Reply, error) {
		return router.Reply{ID: e.ID}, nil
	}), pub)

	err := r.handle(context.Background(), `{"id":"1","type":"GET_CONTENT"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
