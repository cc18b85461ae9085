package redislivestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/clubnft/clubd/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

const (
	randomnessRequestsHashKey = "randomnessRequestStore:requests"
	randomnessNonceKeyPrefix  = "randomnessRequestStore:nonce:"
)

type randomnessRequestStore struct {
	rdb          *redis.Client
	numOfRetries int
	retryDelay   time.Duration
}

func NewRandomnessRequestStore(
	rdb *redis.Client, numOfRetries int,
) ports.RandomnessRequestStore {
	return &randomnessRequestStore{
		rdb:          rdb,
		numOfRetries: numOfRetries,
		retryDelay:   10 * time.Millisecond,
	}
}

func (s *randomnessRequestStore) NextNonce(ctx context.Context, subId uint64) (uint64, error) {
	nonce, err := s.rdb.Incr(ctx, fmt.Sprintf("%s%d", randomnessNonceKeyPrefix, subId)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment nonce of subscription %d: %v", subId, err)
	}
	return uint64(nonce), nil
}

func (s *randomnessRequestStore) Add(
	ctx context.Context, request ports.RandomnessRequest,
) error {
	val, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal randomness request %s: %v", request.RequestId, err)
	}

	errDuplicated := fmt.Errorf("duplicated randomness request %s", request.RequestId)
	for range s.numOfRetries {
		if err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			exists, err := tx.HExists(ctx, randomnessRequestsHashKey, request.RequestId).Result()
			if err != nil {
				return err
			}
			if exists {
				return errDuplicated
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, randomnessRequestsHashKey, request.RequestId, val)
				return nil
			})
			return err
		}, randomnessRequestsHashKey); err == nil {
			return nil
		}
		if errors.Is(err, errDuplicated) {
			return err
		}
		time.Sleep(s.retryDelay)
	}
	return fmt.Errorf(
		"failed to add randomness request %s after max number of retries: %v",
		request.RequestId, err,
	)
}

func (s *randomnessRequestStore) Get(
	ctx context.Context, requestId string,
) (*ports.RandomnessRequest, error) {
	val, err := s.rdb.HGet(ctx, randomnessRequestsHashKey, requestId).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get randomness request %s: %v", requestId, err)
	}

	var request ports.RandomnessRequest
	if err := json.Unmarshal([]byte(val), &request); err != nil {
		return nil, fmt.Errorf("malformed randomness request in storage %s: %v", requestId, err)
	}
	return &request, nil
}

func (s *randomnessRequestStore) Delete(ctx context.Context, requestId string) error {
	if err := s.rdb.HDel(ctx, randomnessRequestsHashKey, requestId).Err(); err != nil {
		return fmt.Errorf("failed to delete randomness request %s: %v", requestId, err)
	}
	return nil
}

func (s *randomnessRequestStore) ViewAll(
	ctx context.Context,
) ([]ports.RandomnessRequest, error) {
	vals, err := s.rdb.HVals(ctx, randomnessRequestsHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get randomness requests: %v", err)
	}

	requests := make([]ports.RandomnessRequest, 0, len(vals))
	for _, val := range vals {
		var request ports.RandomnessRequest
		if err := json.Unmarshal([]byte(val), &request); err != nil {
			return nil, fmt.Errorf("malformed randomness request in storage: %v", err)
		}
		requests = append(requests, request)
	}
	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].Timestamp.Before(requests[j].Timestamp)
	})
	return requests, nil
}

func (s *randomnessRequestStore) Len(ctx context.Context) (int64, error) {
	count, err := s.rdb.HLen(ctx, randomnessRequestsHashKey).Result()
	if err != nil {
		return -1, fmt.Errorf("failed to count randomness requests: %v", err)
	}
	return count, nil
}
