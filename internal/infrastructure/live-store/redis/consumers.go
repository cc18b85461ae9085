package redislivestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/clubnft/clubd/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

const consumersKeyPrefix = "consumerStore:"

type consumerStore struct {
	rdb *redis.Client
}

func NewConsumerStore(rdb *redis.Client) ports.ConsumerStore {
	return &consumerStore{rdb}
}

func (s *consumerStore) Add(ctx context.Context, subId uint64, consumer string) error {
	if err := s.rdb.SAdd(ctx, consumersKey(subId), strings.ToLower(consumer)).Err(); err != nil {
		return fmt.Errorf("failed to add consumer %s: %v", consumer, err)
	}
	return nil
}

func (s *consumerStore) Remove(ctx context.Context, subId uint64, consumer string) error {
	if err := s.rdb.SRem(ctx, consumersKey(subId), strings.ToLower(consumer)).Err(); err != nil {
		return fmt.Errorf("failed to remove consumer %s: %v", consumer, err)
	}
	return nil
}

func (s *consumerStore) Includes(
	ctx context.Context, subId uint64, consumer string,
) (bool, error) {
	ok, err := s.rdb.SIsMember(ctx, consumersKey(subId), strings.ToLower(consumer)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check consumer %s: %v", consumer, err)
	}
	return ok, nil
}

func consumersKey(subId uint64) string {
	return fmt.Sprintf("%s%d", consumersKeyPrefix, subId)
}
