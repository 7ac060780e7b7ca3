package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const namePrefix = "dataset-name:"

// NameIndex enforces case-insensitive dataset name uniqueness in Redis.
// Key format: dataset-name:<lowercase name> → dataset id
type NameIndex struct {
	client *redis.Client
}

// NewNameIndex creates a NameIndex wrapping the given Redis client.
func NewNameIndex(client *redis.Client) *NameIndex {
	return &NameIndex{client: client}
}

// Claim reserves nameKey for id. It reports false when another dataset
// already holds the name.
func (n *NameIndex) Claim(ctx context.Context, nameKey, id string) (bool, error) {
	ok, err := n.client.SetNX(ctx, n.key(nameKey), id, 0).Result()
	if err != nil {
		return false, fmt.Errorf("claim name: %w", err)
	}
	return ok, nil
}

// Owner returns the id holding nameKey, or "" when the name is free.
func (n *NameIndex) Owner(ctx context.Context, nameKey string) (string, error) {
	id, err := n.client.Get(ctx, n.key(nameKey)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("name owner: %w", err)
	}
	return id, nil
}

// Release frees nameKey outside a transaction. Used to roll back a claim
// whose record write failed.
func (n *NameIndex) Release(ctx context.Context, nameKey string) error {
	return n.client.Del(ctx, n.key(nameKey)).Err()
}

// queueRelease frees nameKey as part of a MULTI/EXEC pipeline.
func (n *NameIndex) queueRelease(ctx context.Context, pipe redis.Pipeliner, nameKey string) {
	pipe.Del(ctx, n.key(nameKey))
}

// queueSet points nameKey at id as part of a pipeline.
func (n *NameIndex) queueSet(ctx context.Context, pipe redis.Pipeliner, nameKey, id string) {
	pipe.Set(ctx, n.key(nameKey), id, 0)
}

func (n *NameIndex) key(nameKey string) string {
	return namePrefix + nameKey
}
