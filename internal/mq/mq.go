// Package mq carries activity events between the API server and the
// notification worker over a config-selected broker backend.
package mq

import (
	"context"
	"encoding/json"

	"github.com/devconnect/apiserver/types"
)

// Message is a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// Bus wraps a backend and the configured activity channel, and speaks in
// typed activity events rather than raw bytes.
type Bus struct {
	backend Backend
	channel string
}

// NewBus constructs a Bus over the provided backend and channel.
func NewBus(backend Backend, channel string) *Bus {
	return &Bus{backend: backend, channel: channel}
}

// Publish sends one activity event to the activity channel. The event
// type travels in the message attributes so subscribers can filter
// without decoding the body.
func (b *Bus) Publish(ctx context.Context, event types.ActivityEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = b.backend.Publish(ctx, b.channel, data, map[string]string{"type": event.Type})
	return err
}

// Subscribe consumes activity events until ctx is cancelled. Messages
// that do not decode are dropped rather than redelivered forever.
func (b *Bus) Subscribe(ctx context.Context, handler func(ctx context.Context, event types.ActivityEvent) error) error {
	return b.backend.Subscribe(ctx, b.channel, func(ctx context.Context, msg Message) error {
		var event types.ActivityEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return nil
		}
		return handler(ctx, event)
	})
}

// Close closes the underlying backend.
func (b *Bus) Close() error {
	return b.backend.Close()
}
