package localoracle

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/clubnft/clubd/internal/core/domain"
	"github.com/clubnft/clubd/internal/core/ports"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	log "github.com/sirupsen/logrus"
)

const MaxNumWords = 500

var (
	ErrRequestNotFound     = ports.ErrRequestNotFound
	ErrInvalidConsumer     = errors.New("consumer not registered for subscription")
	ErrInvalidNumWords     = fmt.Errorf("num words must be between 1 and %d", MaxNumWords)
	ErrOracleNotStarted    = errors.New("oracle not started")
	maxWord                = new(big.Int).Lsh(big.NewInt(1), 256)
	fulfillmentTaskTimeout = 30 * time.Second
)

type Option func(*oracle)

// WithFulfillDelay makes the oracle fulfill every request on its own, delay
// seconds after it was made.
func WithFulfillDelay(scheduler ports.SchedulerService, delay int64) Option {
	return func(o *oracle) {
		o.scheduler = scheduler
		o.fulfillDelay = delay
	}
}

// WithEntropy overrides the source of the random words.
func WithEntropy(r io.Reader) Option {
	return func(o *oracle) {
		o.entropy = r
	}
}

type oracle struct {
	key     *ecdsa.PrivateKey
	address common.Address
	keyHash common.Hash
	subId   uint64

	liveStore    ports.LiveStore
	scheduler    ports.SchedulerService
	fulfillDelay int64
	entropy      io.Reader

	handler     ports.FulfillmentHandler
	handlerLock *sync.RWMutex
}

// Oracle is the local randomness coordinator. Other than serving
// randomness requests it can be asked to fulfill them on demand.
type Oracle interface {
	ports.RandomnessOracle
	ports.ManualFulfiller
	AddConsumer(ctx context.Context, consumer string) error
}

func NewOracle(
	key *ecdsa.PrivateKey, keyHash common.Hash, subId uint64,
	liveStore ports.LiveStore, opts ...Option,
) (Oracle, error) {
	if key == nil {
		return nil, fmt.Errorf("missing coordinator key")
	}
	if liveStore == nil {
		return nil, fmt.Errorf("missing live store")
	}

	o := &oracle{
		key:         key,
		address:     crypto.PubkeyToAddress(key.PublicKey),
		keyHash:     keyHash,
		subId:       subId,
		liveStore:   liveStore,
		entropy:     rand.Reader,
		handlerLock: &sync.RWMutex{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.fulfillDelay > 0 && o.scheduler == nil {
		return nil, fmt.Errorf("missing scheduler for automatic fulfillment")
	}
	return o, nil
}

func (o *oracle) CoordinatorAddress() string {
	return o.address.Hex()
}

func (o *oracle) AddConsumer(ctx context.Context, consumer string) error {
	if !common.IsHexAddress(consumer) {
		return fmt.Errorf("invalid consumer address %s", consumer)
	}
	return o.liveStore.Consumers().Add(ctx, o.subId, common.HexToAddress(consumer).Hex())
}

func (o *oracle) Start(handler ports.FulfillmentHandler) error {
	if handler == nil {
		return fmt.Errorf("missing fulfillment handler")
	}

	o.handlerLock.Lock()
	o.handler = handler
	o.handlerLock.Unlock()

	if o.fulfillDelay <= 0 {
		return nil
	}

	// Requests left pending by a previous run are rescheduled.
	ctx := context.Background()
	pending, err := o.liveStore.RandomnessRequests().ViewAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending randomness requests: %w", err)
	}
	for _, request := range pending {
		if err := o.scheduleFulfillment(request.RequestId); err != nil {
			return err
		}
	}
	if len(pending) > 0 {
		log.Infof("rescheduled %d pending randomness requests", len(pending))
	}
	return nil
}

func (o *oracle) Stop() {
	o.handlerLock.Lock()
	defer o.handlerLock.Unlock()
	o.handler = nil
}

func (o *oracle) RequestRandomWords(
	ctx context.Context, consumer string, numWords uint32,
) (string, error) {
	if numWords == 0 || numWords > MaxNumWords {
		return "", ErrInvalidNumWords
	}
	if !common.IsHexAddress(consumer) {
		return "", fmt.Errorf("invalid consumer address %s", consumer)
	}
	consumerAddr := common.HexToAddress(consumer)

	ok, err := o.liveStore.Consumers().Includes(ctx, o.subId, consumerAddr.Hex())
	if err != nil {
		return "", fmt.Errorf("failed to verify consumer: %w", err)
	}
	if !ok {
		return "", ErrInvalidConsumer
	}

	nonce, err := o.liveStore.RandomnessRequests().NextNonce(ctx, o.subId)
	if err != nil {
		return "", fmt.Errorf("failed to get request nonce: %w", err)
	}

	requestId := o.computeRequestId(consumerAddr, nonce)
	request := ports.RandomnessRequest{
		RequestId: requestId,
		Consumer:  consumerAddr.Hex(),
		SubId:     o.subId,
		Nonce:     nonce,
		NumWords:  numWords,
		Timestamp: time.Now(),
	}
	if err := o.liveStore.RandomnessRequests().Add(ctx, request); err != nil {
		return "", fmt.Errorf("failed to store randomness request: %w", err)
	}

	log.WithFields(log.Fields{
		"request_id": requestId,
		"consumer":   request.Consumer,
		"num_words":  numWords,
	}).Debug("randomness requested")

	if o.fulfillDelay > 0 {
		if err := o.scheduleFulfillment(requestId); err != nil {
			log.WithError(err).Warnf(
				"failed to schedule fulfillment of %s, fulfill it manually", requestId,
			)
		}
	}

	return requestId, nil
}

func (o *oracle) FulfillRandomWords(ctx context.Context, requestId string) error {
	o.handlerLock.RLock()
	handler := o.handler
	o.handlerLock.RUnlock()
	if handler == nil {
		return ErrOracleNotStarted
	}

	request, err := o.liveStore.RandomnessRequests().Get(ctx, requestId)
	if err != nil {
		return fmt.Errorf("failed to get randomness request: %w", err)
	}
	if request == nil {
		return ErrRequestNotFound
	}

	words, err := o.randomWords(request.NumWords)
	if err != nil {
		return fmt.Errorf("failed to generate random words: %w", err)
	}
	fulfillment, err := o.sign(requestId, words)
	if err != nil {
		return err
	}

	// The request stays pending, and can be fulfilled again, unless the
	// consumer accepted it or no longer knows about it.
	if err := handler(ctx, fulfillment); err != nil {
		if !errors.Is(err, domain.ErrUnknownOrStaleRequest) {
			return fmt.Errorf("consumer failed to handle fulfillment of %s: %w", requestId, err)
		}
		log.WithError(err).Debugf("dropping stale randomness request %s", requestId)
		if err := o.Discard(ctx, requestId); err != nil {
			return err
		}
		return fmt.Errorf("consumer rejected fulfillment of %s: %w", requestId, err)
	}

	if err := o.Discard(ctx, requestId); err != nil {
		return err
	}
	log.Debugf("randomness request %s fulfilled", requestId)
	return nil
}

func (o *oracle) Discard(ctx context.Context, requestId string) error {
	if err := o.liveStore.RandomnessRequests().Delete(ctx, requestId); err != nil {
		return fmt.Errorf("failed to delete randomness request: %w", err)
	}
	return nil
}

func (o *oracle) PendingRequests(ctx context.Context) ([]ports.RandomnessRequest, error) {
	return o.liveStore.RandomnessRequests().ViewAll(ctx)
}

// computeRequestId is keccak256(keyHash, consumer, subId, nonce), all
// encoded as 32 byte words.
func (o *oracle) computeRequestId(consumer common.Address, nonce uint64) string {
	return crypto.Keccak256Hash(
		o.keyHash.Bytes(),
		common.LeftPadBytes(consumer.Bytes(), 32),
		math.U256Bytes(new(big.Int).SetUint64(o.subId)),
		math.U256Bytes(new(big.Int).SetUint64(nonce)),
	).Hex()
}

func (o *oracle) randomWords(numWords uint32) ([]*big.Int, error) {
	words := make([]*big.Int, 0, numWords)
	for range numWords {
		word, err := rand.Int(o.entropy, maxWord)
		if err != nil {
			return nil, err
		}
		words = append(words, word)
	}
	return words, nil
}

func (o *oracle) sign(
	requestId string, words []*big.Int,
) (domain.RandomnessFulfillment, error) {
	fulfillment := domain.RandomnessFulfillment{
		RequestId:   requestId,
		RandomWords: words,
	}
	sig, err := crypto.Sign(fulfillment.Digest(), o.key)
	if err != nil {
		return domain.RandomnessFulfillment{}, fmt.Errorf("failed to sign fulfillment: %w", err)
	}
	fulfillment.Signature = sig
	return fulfillment, nil
}

func (o *oracle) scheduleFulfillment(requestId string) error {
	at := o.scheduler.AddNow(o.fulfillDelay)
	return o.scheduler.ScheduleTaskOnce(at, func() {
		ctx, cancel := context.WithTimeout(context.Background(), fulfillmentTaskTimeout)
		defer cancel()

		if err := o.FulfillRandomWords(ctx, requestId); err != nil {
			log.WithError(err).Warnf("automatic fulfillment of %s failed", requestId)
		}
	})
}
