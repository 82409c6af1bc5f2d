package queue

import (
	"context"
	"sync"
)

// Publisher delivers auth events to the message fabric. The mailer
// consumes the token-bearing events; raw ephemeral tokens leave the
// process only through this channel.
type Publisher interface {
	Publish(ctx context.Context, key string, event any, reqID string) error
	Close() error
}

type NoopPub struct{}

func NewNoop() Publisher { return NoopPub{} }

func (NoopPub) Publish(ctx context.Context, key string, event any, reqID string) error {
	return nil
}
func (NoopPub) Close() error { return nil }

// Capture records published events in memory for assertions.
type Capture struct {
	mu     sync.Mutex
	events []Captured
}

type Captured struct {
	Key   string
	Event any
}

func NewCapture() *Capture { return &Capture{} }

func (c *Capture) Publish(_ context.Context, key string, event any, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, Captured{Key: key, Event: event})
	return nil
}

func (c *Capture) Close() error { return nil }

// Events returns a snapshot of everything published so far.
func (c *Capture) Events() []Captured {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Captured, len(c.events))
	copy(out, c.events)
	return out
}
