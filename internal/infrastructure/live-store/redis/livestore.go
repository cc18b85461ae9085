package redislivestore

import (
	"github.com/clubnft/clubd/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

type liveStore struct {
	requests  ports.RandomnessRequestStore
	consumers ports.ConsumerStore
}

func NewLiveStore(rdb *redis.Client, numOfRetries int) ports.LiveStore {
	return &liveStore{
		requests:  NewRandomnessRequestStore(rdb, numOfRetries),
		consumers: NewConsumerStore(rdb),
	}
}

func (s *liveStore) RandomnessRequests() ports.RandomnessRequestStore {
	return s.requests
}

func (s *liveStore) Consumers() ports.ConsumerStore {
	return s.consumers
}
