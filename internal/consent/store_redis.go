package consent

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each user's consent partition in a redis hash keyed by
// the hashed user ID, field per targeted ID. HDel's removed-count return
// directly satisfies the delete contract.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func partitionKey(hashedUserID string) string {
	return "consent:" + hashedUserID
}

func (s *RedisStore) GetConsents(ctx context.Context, hashedUserID string) ([]Record, error) {
	fields, err := s.client.HGetAll(ctx, partitionKey(hashedUserID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get consents: %w", err)
	}
	records := make([]Record, 0, len(fields))
	for targetedID, attributeHash := range fields {
		records = append(records, Record{TargetedID: targetedID, AttributeHash: attributeHash})
	}
	return records, nil
}

func (s *RedisStore) SaveConsent(ctx context.Context, hashedUserID, targetedID, attributeHash string) error {
	if err := s.client.HSet(ctx, partitionKey(hashedUserID), targetedID, attributeHash).Err(); err != nil {
		return fmt.Errorf("save consent: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteConsent(ctx context.Context, hashedUserID, targetedID string) (int64, error) {
	removed, err := s.client.HDel(ctx, partitionKey(hashedUserID), targetedID).Result()
	if err != nil {
		return 0, fmt.Errorf("delete consent: %w", err)
	}
	return removed, nil
}
