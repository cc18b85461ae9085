package inmemorylivestore

import (
	"context"
	"strings"
	"sync"

	"github.com/clubnft/clubd/internal/core/ports"
)

type consumerStore struct {
	lock      sync.RWMutex
	consumers map[uint64]map[string]struct{}
}

func NewConsumerStore() ports.ConsumerStore {
	return &consumerStore{
		consumers: make(map[uint64]map[string]struct{}),
	}
}

func (m *consumerStore) Add(_ context.Context, subId uint64, consumer string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, ok := m.consumers[subId]; !ok {
		m.consumers[subId] = make(map[string]struct{})
	}
	m.consumers[subId][strings.ToLower(consumer)] = struct{}{}
	return nil
}

func (m *consumerStore) Remove(_ context.Context, subId uint64, consumer string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if consumers, ok := m.consumers[subId]; ok {
		delete(consumers, strings.ToLower(consumer))
	}
	return nil
}

func (m *consumerStore) Includes(
	_ context.Context, subId uint64, consumer string,
) (bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	_, ok := m.consumers[subId][strings.ToLower(consumer)]
	return ok, nil
}
