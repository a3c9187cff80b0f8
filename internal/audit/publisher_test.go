package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_SynchronousAppend(t *testing.T) {
	sink := NewMemoryStore()
	p := NewPublisher(sink)
	ctx := context.Background()

	err := p.Emit(ctx, Event{
		Category:     CategoryCompliance,
		Action:       string(EventConsentGranted),
		HashedUserID: "huid",
		RelyingParty: "https://sp.example.com",
		TargetedID:   "tid",
	})
	require.NoError(t, err)

	events, err := sink.ListByUser(ctx, "huid")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(EventConsentGranted), events[0].Action)
	assert.Equal(t, "https://sp.example.com", events[0].RelyingParty)
}

func TestEmit_StampsIDAndTimestamp(t *testing.T) {
	sink := NewMemoryStore()
	p := NewPublisher(sink)
	ctx := context.Background()

	require.NoError(t, p.Emit(ctx, Event{HashedUserID: "huid"}))

	events, err := sink.ListByUser(ctx, "huid")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestEmit_PreservesCallerStamps(t *testing.T) {
	sink := NewMemoryStore()
	p := NewPublisher(sink)
	ctx := context.Background()
	stamped := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, p.Emit(ctx, Event{
		ID:           "event-1",
		Timestamp:    stamped,
		HashedUserID: "huid",
	}))

	events, err := sink.ListByUser(ctx, "huid")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "event-1", events[0].ID)
	assert.Equal(t, stamped, events[0].Timestamp)
}

func TestEmit_AsyncDrainsOnClose(t *testing.T) {
	sink := NewMemoryStore()
	p := NewPublisher(sink, WithAsyncBuffer(8))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, p.Emit(ctx, Event{HashedUserID: "huid"}))
	}
	p.Close()

	events, err := sink.ListByUser(ctx, "huid")
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestEmit_FullBufferFallsBackToSync(t *testing.T) {
	sink := NewMemoryStore()
	p := &Publisher{sink: sink, inbox: make(chan Event, 1)}
	ctx := context.Background()

	// First fills the buffer (no drain goroutine is running), second must
	// append synchronously instead of dropping.
	require.NoError(t, p.Emit(ctx, Event{HashedUserID: "huid"}))
	require.NoError(t, p.Emit(ctx, Event{HashedUserID: "huid"}))

	events, err := sink.ListByUser(ctx, "huid")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestClose_Idempotent(t *testing.T) {
	p := NewPublisher(NewMemoryStore(), WithAsyncBuffer(4))
	p.Close()
	p.Close()
}

// closableSink rejects appends once closed, like a Kafka client whose
// connection has been torn down.
type closableSink struct {
	appended int
	rejected int
	closed   bool
}

func (s *closableSink) Append(context.Context, Event) error {
	if s.closed {
		s.rejected++
		return assert.AnError
	}
	s.appended++
	return nil
}

func (s *closableSink) Close() { s.closed = true }

func TestClose_FlushesBufferBeforeClosingSink(t *testing.T) {
	sink := &closableSink{}
	p := NewPublisher(sink, WithAsyncBuffer(16))
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		require.NoError(t, p.Emit(ctx, Event{HashedUserID: "huid"}))
	}
	p.Close()

	assert.Equal(t, 8, sink.appended, "every buffered event reaches the sink")
	assert.Zero(t, sink.rejected, "no event may hit the sink after it closes")
	assert.True(t, sink.closed, "closing the publisher closes the sink")
}

func TestClose_SyncPublisherClosesSink(t *testing.T) {
	sink := &closableSink{}
	p := NewPublisher(sink)
	require.NoError(t, p.Emit(context.Background(), Event{HashedUserID: "huid"}))

	p.Close()

	assert.Equal(t, 1, sink.appended)
	assert.True(t, sink.closed)
}
