package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Publisher emits events to a sink, synchronously by default or through a
// buffered channel when constructed with WithAsyncBuffer.
type Publisher struct {
	sink  Sink
	inbox chan Event

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer decouples emitters from sink latency with a buffered
// channel of the given size. When the buffer is full, Emit falls back to a
// synchronous append rather than dropping the event.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Event, size)
	}
}

func NewPublisher(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{sink: sink}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event, stamping timestamp and ID when absent.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if p.inbox == nil {
		return p.sink.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		return p.sink.Append(ctx, event)
	}
}

// Close stops the async drain, flushes buffered events, and then closes the
// sink when it supports closing. The sink must outlive the drain, so its
// closure belongs here and not with the caller.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
		if closer, ok := p.sink.(interface{ Close() }); ok {
			closer.Close()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		// Background append; the emitter's request context is gone by now.
		_ = p.sink.Append(context.Background(), event)
	}
}
