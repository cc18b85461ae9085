package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/clubnft/clubd/internal/core/domain"
	"github.com/clubnft/clubd/internal/core/ports"
	apperrors "github.com/clubnft/clubd/pkg/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	log "github.com/sirupsen/logrus"
)

const (
	numWords       = 1
	discardTimeout = 5 * time.Second
)

type service struct {
	// services
	repoManager ports.RepoManager
	oracle      ports.RandomnessOracle
	alerts      ports.Alerts

	// config
	categories  *domain.CategoryTable
	coordinator common.Address
	consumer    common.Address

	// state transitions of the collection are applied one at a time
	lock *sync.Mutex
}

func NewService(
	repoManager ports.RepoManager,
	oracle ports.RandomnessOracle,
	alerts ports.Alerts,
	categories *domain.CategoryTable,
	consumer string,
	mintFee *big.Int,
	metadataReferences []string,
) (Service, error) {
	ctx := context.Background()

	if categories == nil {
		categories = domain.DefaultCategoryTable()
	}
	if !common.IsHexAddress(consumer) {
		return nil, fmt.Errorf("invalid consumer address %s", consumer)
	}
	coordinator := oracle.CoordinatorAddress()
	if !common.IsHexAddress(coordinator) {
		return nil, fmt.Errorf("invalid coordinator address %s", coordinator)
	}

	collection, err := repoManager.Mints().GetCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection from db: %w", err)
	}

	if collection == nil {
		collection, err = domain.NewCollection(mintFee, metadataReferences)
		if err != nil {
			return nil, fmt.Errorf("invalid collection config: %w", err)
		}
		if err := repoManager.Mints().InitCollection(ctx, *collection); err != nil {
			return nil, fmt.Errorf("failed to initialize collection: %w", err)
		}
		log.Infof(
			"initialized collection with mint fee %s and %d metadata references",
			collection.MintFee, len(collection.MetadataReferences),
		)
	} else if mintFee != nil && len(metadataReferences) > 0 {
		other := domain.Collection{MintFee: mintFee, MetadataReferences: metadataReferences}
		if !collection.HasSameConfig(other) {
			return nil, apperrors.ALREADY_INITIALIZED.Wrap(domain.ErrAlreadyInitialized).
				WithMetadata(map[string]any{
					"mint_fee":                  collection.MintFee.String(),
					"metadata_references_count": len(collection.MetadataReferences),
				})
		}
	}

	return &service{
		repoManager: repoManager,
		oracle:      oracle,
		alerts:      alerts,
		categories:  categories,
		coordinator: common.HexToAddress(coordinator),
		consumer:    common.HexToAddress(consumer),
		lock:        &sync.Mutex{},
	}, nil
}

func (s *service) Start() apperrors.Error {
	s.repoManager.Events().RegisterEventsHandler(domain.MintTopic, s.onMintEvents)

	log.Debug("starting randomness oracle...")
	if err := s.oracle.Start(s.handleFulfillment); err != nil {
		return apperrors.INTERNAL_ERROR.Wrap(
			fmt.Errorf("failed to start randomness oracle: %w", err),
		)
	}
	return nil
}

func (s *service) Stop() {
	s.oracle.Stop()
	log.Debug("stopped randomness oracle")
	s.repoManager.Events().ClearRegisteredHandlers(domain.MintTopic)
	s.repoManager.Close()
	log.Debug("closed connection to db")
}

func (s *service) RequestMint(
	ctx context.Context, requester string, payment *big.Int,
) (string, apperrors.Error) {
	if !common.IsHexAddress(requester) {
		return "", apperrors.INVALID_ARGUMENT.New("invalid requester address %s", requester).
			WithMetadata(map[string]any{"requester": requester})
	}
	if payment == nil {
		payment = big.NewInt(0)
	}
	if payment.Sign() < 0 {
		return "", apperrors.INVALID_ARGUMENT.New("payment must not be negative").
			WithMetadata(map[string]any{"payment": payment.String()})
	}
	requester = common.HexToAddress(requester).Hex()

	s.lock.Lock()
	defer s.lock.Unlock()

	collection, err := s.getCollection(ctx)
	if err != nil {
		return "", err
	}

	if err := collection.ValidatePayment(payment); err != nil {
		return "", apperrors.INSUFFICIENT_PAYMENT.Wrap(err).
			WithMetadata(apperrors.PaymentMetadata{
				Payment: payment.String(),
				MintFee: collection.MintFee.String(),
			})
	}

	requestId, rerr := s.oracle.RequestRandomWords(ctx, s.consumer.Hex(), numWords)
	if rerr != nil {
		return "", apperrors.INTERNAL_ERROR.Wrap(
			fmt.Errorf("failed to request random words: %w", rerr),
		)
	}

	// From here on, a failure withdraws the randomness request so that no
	// fulfillment can target a mint request that was never recorded.
	request, events, rerr := domain.NewMintRequest(requestId, requester, payment)
	if rerr != nil {
		s.discardRandomnessRequest(requestId)
		return "", apperrors.INTERNAL_ERROR.Wrap(rerr)
	}
	if err := s.repoManager.Mints().AddMintRequest(ctx, *request); err != nil {
		// A duplicate id belongs to a mint request that is still waiting for
		// this very randomness request.
		if !errors.Is(err, domain.ErrMintRequestExists) {
			s.discardRandomnessRequest(requestId)
		}
		return "", apperrors.INTERNAL_ERROR.Wrap(
			fmt.Errorf("failed to store mint request %s: %w", requestId, err),
		)
	}

	if err := s.saveEvents(ctx, requestId, events); err != nil {
		if derr := s.repoManager.Mints().DeleteMintRequest(
			context.WithoutCancel(ctx), requestId,
		); derr != nil {
			log.WithError(derr).Warnf("failed to delete mint request %s", requestId)
		}
		s.discardRandomnessRequest(requestId)
		return "", apperrors.INTERNAL_ERROR.Wrap(
			fmt.Errorf("failed to save events for mint request %s: %w", requestId, err),
		)
	}

	log.WithFields(log.Fields{
		"request_id": requestId,
		"requester":  requester,
	}).Info("mint requested")

	return requestId, nil
}

func (s *service) FulfillRandomWords(
	ctx context.Context, fulfillment domain.RandomnessFulfillment,
) (*domain.Token, apperrors.Error) {
	if len(fulfillment.RequestId) == 0 {
		return nil, apperrors.INVALID_ARGUMENT.New("missing request id")
	}
	if len(fulfillment.RandomWords) == 0 {
		return nil, apperrors.INVALID_ARGUMENT.Wrap(domain.ErrMissingRandomWords).
			WithMetadata(map[string]any{"request_id": fulfillment.RequestId})
	}
	for i, word := range fulfillment.RandomWords {
		if word == nil || word.Sign() < 0 || word.BitLen() > 256 {
			return nil, apperrors.INVALID_ARGUMENT.New(
				"random word at index %d must be a 256 bit unsigned integer", i,
			).WithMetadata(map[string]any{"request_id": fulfillment.RequestId})
		}
	}

	if err := s.verifyCoordinatorSignature(fulfillment); err != nil {
		return nil, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	var events []domain.Event
	token, err := s.repoManager.Mints().Fulfill(
		ctx, fulfillment.RequestId,
		func(collection *domain.Collection, request *domain.MintRequest) (*domain.Token, error) {
			if collection == nil {
				return nil, errCollectionNotInitialized
			}
			token, evs, err := collection.Fulfill(
				request, s.categories, fulfillment.RandomWords,
			)
			if err != nil {
				return nil, err
			}
			events = evs
			return token, nil
		},
	)
	if err != nil {
		return nil, s.fulfillmentError(fulfillment, err)
	}

	if err := s.saveEvents(ctx, fulfillment.RequestId, events); err != nil {
		log.WithError(err).Warnf(
			"failed to save events for mint request %s", fulfillment.RequestId,
		)
	}

	log.WithFields(log.Fields{
		"request_id": fulfillment.RequestId,
		"token_id":   token.TokenId,
		"category":   token.Category.Name,
		"owner":      token.Owner,
	}).Info("token minted")

	return token, nil
}

func (s *service) GetMintFee(ctx context.Context) (*big.Int, apperrors.Error) {
	collection, err := s.getCollection(ctx)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(collection.MintFee), nil
}

func (s *service) GetTokenCounter(ctx context.Context) (uint64, apperrors.Error) {
	collection, err := s.getCollection(ctx)
	if err != nil {
		return 0, err
	}
	return collection.TokenCounter, nil
}

func (s *service) GetMetadataReference(
	ctx context.Context, index uint64,
) (string, apperrors.Error) {
	collection, err := s.getCollection(ctx)
	if err != nil {
		return "", err
	}
	ref, rerr := collection.MetadataReference(index)
	if rerr != nil {
		return "", apperrors.METADATA_INDEX_OUT_OF_RANGE.Wrap(rerr).
			WithMetadata(apperrors.IndexMetadata{
				Index:  index,
				Length: len(collection.MetadataReferences),
			})
	}
	return ref, nil
}

func (s *service) GetCategory(
	ctx context.Context, tokenId uint64,
) (*domain.Category, apperrors.Error) {
	token, err := s.GetToken(ctx, tokenId)
	if err != nil {
		return nil, err
	}
	return &token.Category, nil
}

func (s *service) IsInitialized(ctx context.Context) (bool, apperrors.Error) {
	collection, err := s.repoManager.Mints().GetCollection(ctx)
	if err != nil {
		return false, apperrors.INTERNAL_ERROR.Wrap(
			fmt.Errorf("failed to get collection: %w", err),
		)
	}
	return collection != nil && collection.Initialized, nil
}

func (s *service) GetMintRequest(
	ctx context.Context, requestId string,
) (*MintRequestInfo, apperrors.Error) {
	request, err := s.repoManager.Mints().GetMintRequest(ctx, requestId)
	if err != nil {
		return nil, apperrors.INTERNAL_ERROR.Wrap(
			fmt.Errorf("failed to get mint request: %w", err),
		)
	}
	if request == nil {
		return &MintRequestInfo{
			RequestId: requestId,
			Status:    domain.MintRequestStatusNone,
		}, nil
	}
	info := toMintRequestInfo(*request)
	return &info, nil
}

func (s *service) GetMintRequestsByRequester(
	ctx context.Context, requester string,
) ([]MintRequestInfo, apperrors.Error) {
	if !common.IsHexAddress(requester) {
		return nil, apperrors.INVALID_ARGUMENT.New("invalid requester address %s", requester)
	}
	requests, err := s.repoManager.Mints().GetMintRequestsByRequester(
		ctx, common.HexToAddress(requester).Hex(),
	)
	if err != nil {
		return nil, apperrors.INTERNAL_ERROR.Wrap(
			fmt.Errorf("failed to get mint requests: %w", err),
		)
	}
	infos := make([]MintRequestInfo, 0, len(requests))
	for _, request := range requests {
		infos = append(infos, toMintRequestInfo(request))
	}
	return infos, nil
}

func (s *service) GetToken(ctx context.Context, tokenId uint64) (*domain.Token, apperrors.Error) {
	token, err := s.repoManager.Mints().GetToken(ctx, tokenId)
	if err != nil {
		return nil, apperrors.INTERNAL_ERROR.Wrap(fmt.Errorf("failed to get token: %w", err))
	}
	if token == nil {
		return nil, apperrors.TOKEN_NOT_FOUND.New("token %d not found", tokenId).
			WithMetadata(apperrors.TokenMetadata{TokenId: tokenId})
	}
	return token, nil
}

func (s *service) GetTokensByOwner(
	ctx context.Context, owner string,
) ([]domain.Token, apperrors.Error) {
	if !common.IsHexAddress(owner) {
		return nil, apperrors.INVALID_ARGUMENT.New("invalid owner address %s", owner)
	}
	tokens, err := s.repoManager.Mints().GetTokensByOwner(ctx, common.HexToAddress(owner).Hex())
	if err != nil {
		return nil, apperrors.INTERNAL_ERROR.Wrap(fmt.Errorf("failed to get tokens: %w", err))
	}
	return tokens, nil
}

func (s *service) GetTokenURI(ctx context.Context, tokenId uint64) (string, apperrors.Error) {
	token, err := s.GetToken(ctx, tokenId)
	if err != nil {
		return "", err
	}
	return token.MetadataReference, nil
}

func (s *service) GetInfo(ctx context.Context) (*ServiceInfo, apperrors.Error) {
	info := &ServiceInfo{
		Modulus:            s.categories.Modulus(),
		CoordinatorAddress: s.coordinator.Hex(),
		ConsumerAddress:    s.consumer.Hex(),
	}

	var lowerBound uint64
	for _, b := range s.categories.Bounds() {
		info.Categories = append(info.Categories, CategoryInfo{
			Id:         b.Category.Id,
			Name:       b.Category.Name,
			LowerBound: lowerBound,
			UpperBound: b.Bound,
		})
		lowerBound = b.Bound
	}

	collection, err := s.repoManager.Mints().GetCollection(ctx)
	if err != nil {
		return nil, apperrors.INTERNAL_ERROR.Wrap(
			fmt.Errorf("failed to get collection: %w", err),
		)
	}
	if collection != nil {
		info.MintFee = collection.MintFee
		info.TokenCounter = collection.TokenCounter
		info.Initialized = collection.Initialized
		info.MetadataReferencesCount = len(collection.MetadataReferences)
	}
	return info, nil
}

func (s *service) handleFulfillment(
	ctx context.Context, fulfillment domain.RandomnessFulfillment,
) error {
	if _, err := s.FulfillRandomWords(ctx, fulfillment); err != nil {
		return err
	}
	return nil
}

func (s *service) verifyCoordinatorSignature(
	fulfillment domain.RandomnessFulfillment,
) apperrors.Error {
	pubkey, err := crypto.SigToPub(fulfillment.Digest(), fulfillment.Signature)
	if err != nil {
		return apperrors.ONLY_COORDINATOR_CAN_FULFILL.New("invalid fulfillment signature: %s", err).
			WithMetadata(apperrors.CoordinatorMetadata{Expected: s.coordinator.Hex()})
	}
	signer := crypto.PubkeyToAddress(*pubkey)
	if signer != s.coordinator {
		return apperrors.ONLY_COORDINATOR_CAN_FULFILL.New(
			"fulfillment for request %s not signed by coordinator", fulfillment.RequestId,
		).WithMetadata(apperrors.CoordinatorMetadata{
			Expected: s.coordinator.Hex(),
			Got:      signer.Hex(),
		})
	}
	return nil
}

func (s *service) fulfillmentError(
	fulfillment domain.RandomnessFulfillment, err error,
) apperrors.Error {
	switch {
	case errors.Is(err, domain.ErrUnknownOrStaleRequest):
		return apperrors.UNKNOWN_OR_STALE_REQUEST.Wrap(err).
			WithMetadata(apperrors.RequestMetadata{RequestId: fulfillment.RequestId})
	case errors.Is(err, domain.ErrOutOfRange):
		randomValue := fulfillment.RandomWords[0].String()
		log.WithError(err).WithFields(log.Fields{
			"request_id":   fulfillment.RequestId,
			"random_value": randomValue,
		}).Error("category selection out of range")
		go s.publishAlert(ports.CategoryOutRange, ports.CategoryOutOfRangeAlert{
			RequestId:   fulfillment.RequestId,
			RandomValue: randomValue,
			Modulus:     s.categories.Modulus(),
		})
		return apperrors.CATEGORY_OUT_OF_RANGE.Wrap(err).
			WithMetadata(apperrors.RandomValueMetadata{
				RandomValue: randomValue,
				Modulus:     s.categories.Modulus(),
			})
	case errors.Is(err, domain.ErrMissingRandomWords):
		return apperrors.INVALID_ARGUMENT.Wrap(err).
			WithMetadata(map[string]any{"request_id": fulfillment.RequestId})
	case errors.Is(err, errCollectionNotInitialized):
		return apperrors.NOT_INITIALIZED.Wrap(err)
	default:
		return apperrors.INTERNAL_ERROR.Wrap(
			fmt.Errorf("failed to fulfill mint request %s: %w", fulfillment.RequestId, err),
		)
	}
}

func (s *service) getCollection(ctx context.Context) (*domain.Collection, apperrors.Error) {
	collection, err := s.repoManager.Mints().GetCollection(ctx)
	if err != nil {
		return nil, apperrors.INTERNAL_ERROR.Wrap(
			fmt.Errorf("failed to get collection: %w", err),
		)
	}
	if collection == nil || !collection.Initialized {
		return nil, apperrors.NOT_INITIALIZED.Wrap(errCollectionNotInitialized)
	}
	return collection, nil
}

func (s *service) discardRandomnessRequest(requestId string) {
	ctx, cancel := context.WithTimeout(context.Background(), discardTimeout)
	defer cancel()
	if err := s.oracle.Discard(ctx, requestId); err != nil {
		log.WithError(err).Warnf("failed to discard randomness request %s", requestId)
	}
}

func (s *service) saveEvents(
	ctx context.Context, id string, events []domain.Event,
) error {
	if len(events) <= 0 {
		return nil
	}
	return s.repoManager.Events().Save(ctx, domain.MintTopic, id, events)
}

func (s *service) onMintEvents(events []domain.Event) {
	if len(events) <= 0 {
		return
	}

	lastEvent := events[len(events)-1]
	minted, ok := lastEvent.(domain.TokenMinted)
	if !ok {
		return
	}

	tokenCounter := minted.TokenId + 1
	s.publishAlert(ports.TokenMinted, ports.TokenMintedAlert{
		TokenId:           minted.TokenId,
		RequestId:         minted.Id,
		Owner:             minted.Owner,
		Category:          minted.Category,
		MetadataReference: minted.MetadataReference,
		TokenCounter:      tokenCounter,
	})
}

func toMintRequestInfo(request domain.MintRequest) MintRequestInfo {
	info := MintRequestInfo{
		RequestId:   request.RequestId,
		Requester:   request.Requester,
		Payment:     request.Payment,
		Status:      request.Status(),
		CreatedAt:   request.CreatedAt,
		FulfilledAt: request.FulfilledAt,
	}
	if request.Fulfilled {
		tokenId := request.TokenId
		info.TokenId = &tokenId
	}
	return info
}

var errCollectionNotInitialized = fmt.Errorf("collection not initialized")
