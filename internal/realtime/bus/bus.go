package bus

import (
	"context"
	"sync"

	"github.com/yungbote/leancanvas-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, evt realtime.Event) error
	StartForwarder(ctx context.Context, onEvt func(evt realtime.Event)) error
	Close() error
}

type noopBus struct{}

// NewNoopBus drops every event. Used when redis is not configured.
func NewNoopBus() Bus { return noopBus{} }

func (noopBus) Publish(context.Context, realtime.Event) error              { return nil }
func (noopBus) StartForwarder(context.Context, func(realtime.Event)) error { return nil }
func (noopBus) Close() error                                               { return nil }

// MemoryBus delivers events to in-process subscribers synchronously.
type MemoryBus struct {
	mu   sync.RWMutex
	subs []func(realtime.Event)
}

func NewMemoryBus() *MemoryBus { return &MemoryBus{} }

func (b *MemoryBus) Publish(_ context.Context, evt realtime.Event) error {
	b.mu.RLock()
	subs := append([]func(realtime.Event){}, b.subs...)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(evt)
	}
	return nil
}

func (b *MemoryBus) StartForwarder(ctx context.Context, onEvt func(evt realtime.Event)) error {
	if onEvt == nil {
		return nil
	}
	b.mu.Lock()
	b.subs = append(b.subs, onEvt)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.subs = nil
	b.mu.Unlock()
	return nil
}
