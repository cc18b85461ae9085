package inmemorylivestore

import "github.com/clubnft/clubd/internal/core/ports"

type liveStore struct {
	requests  ports.RandomnessRequestStore
	consumers ports.ConsumerStore
}

func NewLiveStore() ports.LiveStore {
	return &liveStore{
		requests:  NewRandomnessRequestStore(),
		consumers: NewConsumerStore(),
	}
}

func (s *liveStore) RandomnessRequests() ports.RandomnessRequestStore {
	return s.requests
}

func (s *liveStore) Consumers() ports.ConsumerStore {
	return s.consumers
}
