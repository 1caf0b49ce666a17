// Package events fans interview session events out over Redis pub/sub so any
// API instance holding a WebSocket for the session can forward them.
package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/yoockh/careermentor/internal/session"
)

func Channel(sessionID string) string {
	return "interview:" + sessionID + ":events"
}

type Publisher interface {
	Publish(ctx context.Context, e session.Event) error
}

type Subscriber interface {
	// Subscribe streams raw JSON payloads for the session until ctx is done
	// or the returned close func is called.
	Subscribe(ctx context.Context, sessionID string) (<-chan []byte, func() error, error)
}

type RedisBus struct {
	rdb *redis.Client
}

var (
	_ Publisher  = (*RedisBus)(nil)
	_ Subscriber = (*RedisBus)(nil)
)

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

func (b *RedisBus) Publish(ctx context.Context, e session.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, Channel(e.SessionID), payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, sessionID string) (<-chan []byte, func() error, error) {
	ps := b.rdb.Subscribe(ctx, Channel(sessionID))
	// wait for the subscription to be confirmed so no early event is lost
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}

	out := make(chan []byte, 32)
	go func() {
		defer close(out)
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(m.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, ps.Close, nil
}

// Discard drops every event; used when no bus is configured.
type Discard struct{}

func (Discard) Publish(context.Context, session.Event) error { return nil }
