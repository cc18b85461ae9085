package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/clubnft/clubd/internal/core/domain"
	"github.com/clubnft/clubd/internal/infrastructure/db/postgres/sqlc/queries"
)

type mintRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewMintRepository(config ...interface{}) (domain.MintRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config: expected 1 argument, got %d", len(config))
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf(
			"cannot open mint repository: expected *sql.DB but got %T", config[0],
		)
	}

	return &mintRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *mintRepository) GetCollection(ctx context.Context) (*domain.Collection, error) {
	return getCollection(ctx, r.querier)
}

func (r *mintRepository) InitCollection(
	ctx context.Context, collection domain.Collection,
) error {
	txBody := func(querierWithTx *queries.Queries) error {
		now := time.Now().UnixMilli()
		if err := querierWithTx.InsertCollection(ctx, queries.InsertCollectionParams{
			MintFee:      collection.MintFee.String(),
			TokenCounter: int64(collection.TokenCounter),
			Initialized:  collection.Initialized,
			CreatedAt:    collection.CreatedAt,
			UpdatedAt:    now,
		}); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadyInitialized
			}
			return fmt.Errorf("failed to insert collection: %w", err)
		}

		for i, ref := range collection.MetadataReferences {
			if err := querierWithTx.InsertMetadataReference(
				ctx, queries.InsertMetadataReferenceParams{
					Position:  int64(i),
					Reference: ref,
				},
			); err != nil {
				return fmt.Errorf("failed to insert metadata reference %d: %w", i, err)
			}
		}
		return nil
	}

	return execTx(ctx, r.db, txBody)
}

func (r *mintRepository) AddMintRequest(ctx context.Context, request domain.MintRequest) error {
	err := r.querier.InsertMintRequest(ctx, queries.InsertMintRequestParams{
		RequestID:   request.RequestId,
		Requester:   request.Requester,
		Payment:     request.Payment.String(),
		Fulfilled:   request.Fulfilled,
		TokenID:     int64(request.TokenId),
		CreatedAt:   request.CreatedAt,
		FulfilledAt: request.FulfilledAt,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrMintRequestExists
		}
		return fmt.Errorf("failed to insert mint request: %w", err)
	}
	return nil
}

func (r *mintRepository) DeleteMintRequest(ctx context.Context, requestId string) error {
	if _, err := r.querier.DeleteUnfulfilledMintRequest(ctx, requestId); err != nil {
		return fmt.Errorf("failed to delete mint request: %w", err)
	}
	return nil
}

func (r *mintRepository) GetMintRequest(
	ctx context.Context, requestId string,
) (*domain.MintRequest, error) {
	return getMintRequest(ctx, r.querier, requestId)
}

func (r *mintRepository) GetMintRequestsByRequester(
	ctx context.Context, requester string,
) ([]domain.MintRequest, error) {
	rows, err := r.querier.SelectMintRequestsByRequester(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("failed to get mint requests: %w", err)
	}
	requests := make([]domain.MintRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, toMintRequest(row))
	}
	return requests, nil
}

func (r *mintRepository) GetToken(ctx context.Context, tokenId uint64) (*domain.Token, error) {
	row, err := r.querier.SelectToken(ctx, int64(tokenId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	token := toToken(row)
	return &token, nil
}

func (r *mintRepository) GetTokensByOwner(
	ctx context.Context, owner string,
) ([]domain.Token, error) {
	rows, err := r.querier.SelectTokensByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}
	tokens := make([]domain.Token, 0, len(rows))
	for _, row := range rows {
		tokens = append(tokens, toToken(row))
	}
	return tokens, nil
}

func (r *mintRepository) Fulfill(
	ctx context.Context, requestId string, fulfillFn domain.FulfillFn,
) (*domain.Token, error) {
	var token *domain.Token

	txBody := func(querierWithTx *queries.Queries) error {
		collection, err := getCollection(ctx, querierWithTx)
		if err != nil {
			return err
		}
		request, err := getMintRequest(ctx, querierWithTx, requestId)
		if err != nil {
			return err
		}

		token, err = fulfillFn(collection, request)
		if err != nil {
			return err
		}

		now := time.Now().UnixMilli()
		if _, err := querierWithTx.UpdateTokenCounter(ctx, queries.UpdateTokenCounterParams{
			TokenCounter: int64(collection.TokenCounter),
			UpdatedAt:    now,
		}); err != nil {
			return fmt.Errorf("failed to update token counter: %w", err)
		}

		updated, err := querierWithTx.UpdateMintRequestFulfilled(
			ctx, queries.UpdateMintRequestFulfilledParams{
				TokenID:     int64(request.TokenId),
				FulfilledAt: request.FulfilledAt,
				RequestID:   requestId,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to update mint request: %w", err)
		}
		if updated == 0 {
			return domain.ErrUnknownOrStaleRequest
		}

		randomWord := "0"
		if token.RandomWord != nil {
			randomWord = token.RandomWord.String()
		}
		if err := querierWithTx.InsertToken(ctx, queries.InsertTokenParams{
			TokenID:           int64(token.TokenId),
			CategoryID:        int16(token.Category.Id),
			CategoryName:      token.Category.Name,
			MetadataReference: token.MetadataReference,
			Owner:             token.Owner,
			RequestID:         token.RequestId,
			RandomWord:        randomWord,
			MintedAt:          token.MintedAt,
		}); err != nil {
			return fmt.Errorf("failed to insert token %d: %w", token.TokenId, err)
		}
		return nil
	}

	if err := execTx(ctx, r.db, txBody); err != nil {
		return nil, err
	}
	return token, nil
}

func (r *mintRepository) Close() {
	_ = r.db.Close()
}

func getCollection(ctx context.Context, querier *queries.Queries) (*domain.Collection, error) {
	row, err := querier.SelectCollection(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	mintFee, ok := new(big.Int).SetString(row.MintFee, 10)
	if !ok {
		return nil, fmt.Errorf("invalid mint fee %s", row.MintFee)
	}
	refs, err := querier.SelectMetadataReferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata references: %w", err)
	}

	return &domain.Collection{
		MintFee:            mintFee,
		TokenCounter:       uint64(row.TokenCounter),
		MetadataReferences: refs,
		Initialized:        row.Initialized,
		CreatedAt:          row.CreatedAt,
	}, nil
}

func getMintRequest(
	ctx context.Context, querier *queries.Queries, requestId string,
) (*domain.MintRequest, error) {
	row, err := querier.SelectMintRequest(ctx, requestId)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mint request: %w", err)
	}
	request := toMintRequest(row)
	return &request, nil
}

func toMintRequest(row queries.MintRequest) domain.MintRequest {
	payment, ok := new(big.Int).SetString(row.Payment, 10)
	if !ok {
		payment = big.NewInt(0)
	}
	return domain.MintRequest{
		RequestId:   row.RequestID,
		Requester:   row.Requester,
		Payment:     payment,
		Fulfilled:   row.Fulfilled,
		TokenId:     uint64(row.TokenID),
		CreatedAt:   row.CreatedAt,
		FulfilledAt: row.FulfilledAt,
	}
}

func toToken(row queries.Token) domain.Token {
	randomWord, _ := new(big.Int).SetString(row.RandomWord, 10)
	return domain.Token{
		TokenId: uint64(row.TokenID),
		Category: domain.Category{
			Id:   domain.CategoryId(row.CategoryID),
			Name: row.CategoryName,
		},
		MetadataReference: row.MetadataReference,
		Owner:             row.Owner,
		RequestId:         row.RequestID,
		RandomWord:        randomWord,
		MintedAt:          row.MintedAt,
	}
}
