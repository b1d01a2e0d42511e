package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishDeliversInOrder(t *testing.T) {
	bus := NewBus(16)
	var mu sync.Mutex
	var received []string

	sub := bus.Register(SubscriberFunc(func(ctx context.Context, e Event) error {
		mu.Lock()
		received = append(received, e.Message)
		mu.Unlock()
		return nil
	}))
	defer sub.Close()

	for i := 0; i < 5; i++ {
		bus.Publish(Event{Kind: EventStatus, Message: string(rune('a' + i))})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 5
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, received)
}

func TestBus_PublishNeverBlocksOnFullMailbox(t *testing.T) {
	bus := NewBus(1)
	blocked := make(chan struct{})
	sub := bus.Register(SubscriberFunc(func(ctx context.Context, e Event) error {
		<-blocked
		return nil
	}))
	defer func() {
		close(blocked)
		sub.Close()
	}()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(Event{Kind: EventStatus})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber mailbox")
	}
}

func TestBus_CloseIsIdempotent(t *testing.T) {
	bus := NewBus(4)
	sub := bus.Register(SubscriberFunc(func(context.Context, Event) error { return nil }))
	sub.Close()
	assert.NotPanics(t, func() { sub.Close() })
}
