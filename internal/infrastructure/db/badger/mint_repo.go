package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"sort"
	"time"

	"github.com/clubnft/clubd/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const (
	mintStoreDir  = "mints"
	collectionKey = "collection"
)

type mintRepository struct {
	store *badgerhold.Store
}

type collectionDTO struct {
	MintFee            string
	TokenCounter       uint64
	MetadataReferences []string
	Initialized        bool
	CreatedAt          int64
	UpdatedAt          int64
}

type mintRequestDTO struct {
	RequestId   string
	Requester   string `badgerhold:"index"`
	Payment     string
	Fulfilled   bool
	TokenId     uint64
	CreatedAt   int64
	FulfilledAt int64
}

type tokenDTO struct {
	TokenId           uint64
	CategoryId        uint8
	CategoryName      string
	MetadataReference string
	Owner             string `badgerhold:"index"`
	RequestId         string
	RandomWord        string
	MintedAt          int64
}

func NewMintRepository(config ...interface{}) (domain.MintRepository, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, mintStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open mint store: %s", err)
	}

	return &mintRepository{store}, nil
}

func (r *mintRepository) GetCollection(ctx context.Context) (*domain.Collection, error) {
	var dto collectionDTO
	if err := r.store.Get(collectionKey, &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return dto.toDomain()
}

func (r *mintRepository) InitCollection(
	ctx context.Context, collection domain.Collection,
) error {
	dto := toCollectionDTO(collection)
	if err := r.store.Insert(collectionKey, dto); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrAlreadyInitialized
		}
		return fmt.Errorf("failed to initialize collection: %w", err)
	}
	return nil
}

func (r *mintRepository) AddMintRequest(ctx context.Context, request domain.MintRequest) error {
	dto := toMintRequestDTO(request)

	insertFn := func() error {
		return r.store.Insert(request.RequestId, dto)
	}

	err := insertFn()
	attempts := 1
	for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
		time.Sleep(100 * time.Millisecond)
		err = insertFn()
		attempts++
	}
	if err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrMintRequestExists
		}
		return fmt.Errorf("failed to add mint request: %w", err)
	}
	return nil
}

func (r *mintRepository) DeleteMintRequest(ctx context.Context, requestId string) error {
	var err error
	for range maxRetries {
		err = func() error {
			tx := r.store.Badger().NewTransaction(true)
			defer tx.Discard()

			request, err := r.getMintRequestTx(tx, requestId)
			if err != nil {
				return err
			}
			if request == nil || request.Fulfilled {
				return nil
			}
			if err := r.store.TxDelete(tx, requestId, mintRequestDTO{}); err != nil {
				return err
			}
			return tx.Commit()
		}()
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if err != nil {
		return fmt.Errorf("failed to delete mint request: %w", err)
	}
	return nil
}

func (r *mintRepository) GetMintRequest(
	ctx context.Context, requestId string,
) (*domain.MintRequest, error) {
	var dto mintRequestDTO
	if err := r.store.Get(requestId, &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get mint request: %w", err)
	}
	request := dto.toDomain()
	return &request, nil
}

func (r *mintRepository) GetMintRequestsByRequester(
	ctx context.Context, requester string,
) ([]domain.MintRequest, error) {
	dtos := make([]mintRequestDTO, 0)
	query := badgerhold.Where("Requester").Eq(requester).Index("Requester")
	if err := r.store.Find(&dtos, query); err != nil {
		return nil, fmt.Errorf("failed to get mint requests: %w", err)
	}

	sort.SliceStable(dtos, func(i, j int) bool {
		return dtos[i].CreatedAt < dtos[j].CreatedAt
	})

	requests := make([]domain.MintRequest, 0, len(dtos))
	for _, dto := range dtos {
		requests = append(requests, dto.toDomain())
	}
	return requests, nil
}

func (r *mintRepository) GetToken(ctx context.Context, tokenId uint64) (*domain.Token, error) {
	var dto tokenDTO
	if err := r.store.Get(tokenId, &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	token := dto.toDomain()
	return &token, nil
}

func (r *mintRepository) GetTokensByOwner(
	ctx context.Context, owner string,
) ([]domain.Token, error) {
	dtos := make([]tokenDTO, 0)
	query := badgerhold.Where("Owner").Eq(owner).Index("Owner")
	if err := r.store.Find(&dtos, query); err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}

	sort.SliceStable(dtos, func(i, j int) bool {
		return dtos[i].TokenId < dtos[j].TokenId
	})

	tokens := make([]domain.Token, 0, len(dtos))
	for _, dto := range dtos {
		tokens = append(tokens, dto.toDomain())
	}
	return tokens, nil
}

func (r *mintRepository) Fulfill(
	ctx context.Context, requestId string, fulfillFn domain.FulfillFn,
) (*domain.Token, error) {
	var token *domain.Token
	var err error

	for range maxRetries {
		token, err = func() (*domain.Token, error) {
			tx := r.store.Badger().NewTransaction(true)
			defer tx.Discard()

			collection, err := r.getCollectionTx(tx)
			if err != nil {
				return nil, err
			}
			request, err := r.getMintRequestTx(tx, requestId)
			if err != nil {
				return nil, err
			}

			token, err := fulfillFn(collection, request)
			if err != nil {
				return nil, err
			}

			collectionDto := toCollectionDTO(*collection)
			collectionDto.UpdatedAt = time.Now().UnixMilli()
			if err := r.store.TxUpdate(tx, collectionKey, collectionDto); err != nil {
				return nil, fmt.Errorf("failed to update token counter: %w", err)
			}
			if err := r.store.TxUpdate(
				tx, requestId, toMintRequestDTO(*request),
			); err != nil {
				return nil, fmt.Errorf("failed to update mint request: %w", err)
			}
			if err := r.store.TxInsert(tx, token.TokenId, toTokenDTO(*token)); err != nil {
				return nil, fmt.Errorf("failed to add token %d: %w", token.TokenId, err)
			}

			if err := tx.Commit(); err != nil {
				return nil, err
			}
			return token, nil
		}()
		if err == nil {
			return token, nil // Success
		}

		if errors.Is(err, badger.ErrConflict) {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		return nil, err
	}

	return nil, err
}

func (r *mintRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *mintRepository) getCollectionTx(tx *badger.Txn) (*domain.Collection, error) {
	var dto collectionDTO
	if err := r.store.TxGet(tx, collectionKey, &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return dto.toDomain()
}

func (r *mintRepository) getMintRequestTx(
	tx *badger.Txn, requestId string,
) (*domain.MintRequest, error) {
	var dto mintRequestDTO
	if err := r.store.TxGet(tx, requestId, &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	request := dto.toDomain()
	return &request, nil
}

func toCollectionDTO(collection domain.Collection) collectionDTO {
	mintFee := "0"
	if collection.MintFee != nil {
		mintFee = collection.MintFee.String()
	}
	return collectionDTO{
		MintFee:            mintFee,
		TokenCounter:       collection.TokenCounter,
		MetadataReferences: collection.MetadataReferences,
		Initialized:        collection.Initialized,
		CreatedAt:          collection.CreatedAt,
	}
}

func (d collectionDTO) toDomain() (*domain.Collection, error) {
	mintFee, ok := new(big.Int).SetString(d.MintFee, 10)
	if !ok {
		return nil, fmt.Errorf("invalid mint fee %s", d.MintFee)
	}
	return &domain.Collection{
		MintFee:            mintFee,
		TokenCounter:       d.TokenCounter,
		MetadataReferences: d.MetadataReferences,
		Initialized:        d.Initialized,
		CreatedAt:          d.CreatedAt,
	}, nil
}

func toMintRequestDTO(request domain.MintRequest) mintRequestDTO {
	payment := "0"
	if request.Payment != nil {
		payment = request.Payment.String()
	}
	return mintRequestDTO{
		RequestId:   request.RequestId,
		Requester:   request.Requester,
		Payment:     payment,
		Fulfilled:   request.Fulfilled,
		TokenId:     request.TokenId,
		CreatedAt:   request.CreatedAt,
		FulfilledAt: request.FulfilledAt,
	}
}

func (d mintRequestDTO) toDomain() domain.MintRequest {
	payment, ok := new(big.Int).SetString(d.Payment, 10)
	if !ok {
		payment = big.NewInt(0)
	}
	return domain.MintRequest{
		RequestId:   d.RequestId,
		Requester:   d.Requester,
		Payment:     payment,
		Fulfilled:   d.Fulfilled,
		TokenId:     d.TokenId,
		CreatedAt:   d.CreatedAt,
		FulfilledAt: d.FulfilledAt,
	}
}

func toTokenDTO(token domain.Token) tokenDTO {
	randomWord := ""
	if token.RandomWord != nil {
		randomWord = token.RandomWord.String()
	}
	return tokenDTO{
		TokenId:           token.TokenId,
		CategoryId:        uint8(token.Category.Id),
		CategoryName:      token.Category.Name,
		MetadataReference: token.MetadataReference,
		Owner:             token.Owner,
		RequestId:         token.RequestId,
		RandomWord:        randomWord,
		MintedAt:          token.MintedAt,
	}
}

func (d tokenDTO) toDomain() domain.Token {
	var randomWord *big.Int
	if len(d.RandomWord) > 0 {
		randomWord, _ = new(big.Int).SetString(d.RandomWord, 10)
	}
	return domain.Token{
		TokenId: d.TokenId,
		Category: domain.Category{
			Id:   domain.CategoryId(d.CategoryId),
			Name: d.CategoryName,
		},
		MetadataReference: d.MetadataReference,
		Owner:             d.Owner,
		RequestId:         d.RequestId,
		RandomWord:        randomWord,
		MintedAt:          d.MintedAt,
	}
}
