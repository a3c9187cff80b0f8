//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"consentadmin/pkg/testutil/containers"
)

func TestKafkaSink_AppendsToComplianceTopic(t *testing.T) {
	const topic = "consent-audit"

	rp := containers.NewRedpandaContainer(t)
	rp.CreateTopic(t, topic)

	sink, err := NewKafkaSink(rp.Brokers, topic)
	require.NoError(t, err)
	t.Cleanup(sink.Close)

	ctx := context.Background()
	event := Event{
		ID:           "event-1",
		Category:     CategoryCompliance,
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Action:       string(EventConsentGranted),
		HashedUserID: "huid-1",
		RelyingParty: "https://sp.example.com",
		TargetedID:   "tid-1",
		RequestID:    "req-1",
	}
	require.NoError(t, sink.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "huid-1", string(records[0].Key),
		"events are keyed by hashed user ID for per-user ordering")

	var got Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, event.Action, got.Action)
	assert.Equal(t, event.RelyingParty, got.RelyingParty)
	assert.Equal(t, event.TargetedID, got.TargetedID)
	assert.True(t, event.Timestamp.Equal(got.Timestamp))
}

func TestKafkaSink_PublisherIntegration(t *testing.T) {
	const topic = "consent-audit-async"

	rp := containers.NewRedpandaContainer(t)
	rp.CreateTopic(t, topic)

	sink, err := NewKafkaSink(rp.Brokers, topic)
	require.NoError(t, err)

	// The publisher owns the sink; Close below flushes and closes it.
	publisher := NewPublisher(sink, WithAsyncBuffer(16))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, publisher.Emit(ctx, Event{
			Category:     CategoryCompliance,
			Action:       string(EventConsentRevoked),
			HashedUserID: "huid-1",
		}))
	}
	publisher.Close()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var collected []*kgo.Record
	for len(collected) < 3 {
		fetches := consumer.PollFetches(fetchCtx)
		require.NoError(t, fetches.Err())
		collected = append(collected, fetches.Records()...)
	}
	assert.Len(t, collected, 3)
}
