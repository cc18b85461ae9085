package inmemorylivestore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/clubnft/clubd/internal/core/ports"
)

type randomnessRequestStore struct {
	lock     sync.RWMutex
	requests map[string]ports.RandomnessRequest
	nonces   map[uint64]uint64
}

func NewRandomnessRequestStore() ports.RandomnessRequestStore {
	return &randomnessRequestStore{
		requests: make(map[string]ports.RandomnessRequest),
		nonces:   make(map[uint64]uint64),
	}
}

func (m *randomnessRequestStore) NextNonce(_ context.Context, subId uint64) (uint64, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.nonces[subId]++
	return m.nonces[subId], nil
}

func (m *randomnessRequestStore) Add(_ context.Context, request ports.RandomnessRequest) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, ok := m.requests[request.RequestId]; ok {
		return fmt.Errorf("duplicated randomness request %s", request.RequestId)
	}
	m.requests[request.RequestId] = request
	return nil
}

func (m *randomnessRequestStore) Get(
	_ context.Context, requestId string,
) (*ports.RandomnessRequest, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	request, ok := m.requests[requestId]
	if !ok {
		return nil, nil
	}
	return &request, nil
}

func (m *randomnessRequestStore) Delete(_ context.Context, requestId string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	delete(m.requests, requestId)
	return nil
}

func (m *randomnessRequestStore) ViewAll(_ context.Context) ([]ports.RandomnessRequest, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	requests := make([]ports.RandomnessRequest, 0, len(m.requests))
	for _, request := range m.requests {
		requests = append(requests, request)
	}
	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].Timestamp.Before(requests[j].Timestamp)
	})
	return requests, nil
}

func (m *randomnessRequestStore) Len(_ context.Context) (int64, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return int64(len(m.requests)), nil
}
