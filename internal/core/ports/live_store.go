package ports

import (
	"context"
	"time"
)

type LiveStore interface {
	RandomnessRequests() RandomnessRequestStore
	Consumers() ConsumerStore
}

// RandomnessRequestStore keeps the requests accepted by the local
// randomness coordinator and not yet fulfilled.
type RandomnessRequestStore interface {
	NextNonce(ctx context.Context, subId uint64) (uint64, error)
	Add(ctx context.Context, request RandomnessRequest) error
	Get(ctx context.Context, requestId string) (*RandomnessRequest, error)
	Delete(ctx context.Context, requestId string) error
	ViewAll(ctx context.Context) ([]RandomnessRequest, error)
	Len(ctx context.Context) (int64, error)
}

// ConsumerStore keeps the consumers allowed to request randomness for a
// subscription.
type ConsumerStore interface {
	Add(ctx context.Context, subId uint64, consumer string) error
	Remove(ctx context.Context, subId uint64, consumer string) error
	Includes(ctx context.Context, subId uint64, consumer string) (bool, error)
}

type RandomnessRequest struct {
	RequestId string
	Consumer  string
	SubId     uint64
	Nonce     uint64
	NumWords  uint32
	Timestamp time.Time
}
