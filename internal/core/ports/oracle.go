package ports

import (
	"context"
	"errors"

	"github.com/clubnft/clubd/internal/core/domain"
)

// ErrRequestNotFound is returned when fulfilling a randomness request the
// oracle does not know of, or has already fulfilled.
var ErrRequestNotFound = errors.New("nonexistent randomness request")

// FulfillmentHandler is the entry point invoked by the oracle once the random
// words of a request are available.
type FulfillmentHandler func(ctx context.Context, fulfillment domain.RandomnessFulfillment) error

type RandomnessOracle interface {
	// RequestRandomWords issues a randomness request on behalf of consumer and
	// returns its id without waiting for the fulfillment.
	RequestRandomWords(ctx context.Context, consumer string, numWords uint32) (string, error)
	// Discard withdraws a request that the consumer could not take charge
	// of. Discarding an unknown request is not an error.
	Discard(ctx context.Context, requestId string) error
	// CoordinatorAddress is the address that signs fulfillments.
	CoordinatorAddress() string
	Start(handler FulfillmentHandler) error
	Stop()
}

// ManualFulfiller is implemented by oracles that can be asked to fulfill a
// pending request on demand.
type ManualFulfiller interface {
	FulfillRandomWords(ctx context.Context, requestId string) error
	PendingRequests(ctx context.Context) ([]RandomnessRequest, error)
}
