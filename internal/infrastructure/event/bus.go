// Package event delivers domain events to in-process handlers.
package event

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 256
)

type delivery struct {
	ctx   context.Context
	event shared.DomainEvent
}

// InMemoryEventBus delivers events to subscribed handlers. Before Start
// and after Stop it delivers synchronously on the publishing goroutine;
// while running, a pool of workers drains a buffered queue. A full queue
// falls back to synchronous delivery so events are never dropped.
type InMemoryEventBus struct {
	registry  *HandlerRegistry
	logger    *zap.Logger
	workers   int
	queueSize int

	mu      sync.RWMutex
	queue   chan delivery
	running bool
	wg      sync.WaitGroup
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

// Option configures the bus
type Option func(*InMemoryEventBus)

// WithWorkers sets the number of delivery goroutines
func WithWorkers(n int) Option {
	return func(b *InMemoryEventBus) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithQueueSize sets the queue capacity
func WithQueueSize(n int) Option {
	return func(b *InMemoryEventBus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// NewInMemoryEventBus creates a stopped bus
func NewInMemoryEventBus(l *zap.Logger, opts ...Option) *InMemoryEventBus {
	if l == nil {
		l = zap.NewNop()
	}
	b := &InMemoryEventBus{
		registry:  NewHandlerRegistry(),
		logger:    l,
		workers:   defaultWorkers,
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish hands each event to its handlers. Handler errors are logged,
// never returned: the publishing transaction has already committed.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	// deliveries outlive the request that published them
	ctx = context.WithoutCancel(ctx)

	var inline []shared.DomainEvent
	b.mu.RLock()
	for _, event := range events {
		if b.running {
			select {
			case b.queue <- delivery{ctx: ctx, event: event}:
				continue
			default:
				logger.Enrich(ctx, b.logger).Warn("event queue full, delivering synchronously",
					zap.String("event_type", event.EventType()))
			}
		}
		inline = append(inline, event)
	}
	b.mu.RUnlock()

	for _, event := range inline {
		b.deliver(ctx, event)
	}
	return nil
}

// Subscribe registers a handler. Without explicit types the handler's own
// EventTypes are used; an empty list subscribes to everything.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start launches the workers
func (b *InMemoryEventBus) Start(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil
	}
	b.queue = make(chan delivery, b.queueSize)
	b.running = true
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.work(b.queue)
	}
	b.logger.Info("event bus started", zap.Int("workers", b.workers))
	return nil
}

// Stop closes the queue and waits for queued events to be delivered or
// for ctx to end
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	close(b.queue)
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus stop: %w", ctx.Err())
	}
}

func (b *InMemoryEventBus) work(queue <-chan delivery) {
	defer b.wg.Done()
	for d := range queue {
		b.deliver(d.ctx, d.event)
	}
}

func (b *InMemoryEventBus) deliver(ctx context.Context, event shared.DomainEvent) {
	for _, handler := range b.registry.HandlersFor(event.EventType()) {
		if err := b.safeHandle(ctx, handler, event); err != nil {
			logger.Enrich(ctx, b.logger).Error("event handler failed",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err))
		}
	}
}

func (b *InMemoryEventBus) safeHandle(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}
