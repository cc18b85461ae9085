package application

import (
	"context"
	"io/fs"
	"math/big"

	"github.com/clubnft/clubd/internal/core/domain"
	"github.com/clubnft/clubd/pkg/errors"
)

type Service interface {
	Start() errors.Error
	Stop()
	RequestMint(ctx context.Context, requester string, payment *big.Int) (string, errors.Error)
	// FulfillRandomWords is the entry point of the randomness oracle, it
	// rejects fulfillments not signed by the designated coordinator.
	FulfillRandomWords(
		ctx context.Context, fulfillment domain.RandomnessFulfillment,
	) (*domain.Token, errors.Error)
	GetMintFee(ctx context.Context) (*big.Int, errors.Error)
	GetTokenCounter(ctx context.Context) (uint64, errors.Error)
	GetMetadataReference(ctx context.Context, index uint64) (string, errors.Error)
	GetCategory(ctx context.Context, tokenId uint64) (*domain.Category, errors.Error)
	IsInitialized(ctx context.Context) (bool, errors.Error)
	GetMintRequest(ctx context.Context, requestId string) (*MintRequestInfo, errors.Error)
	GetMintRequestsByRequester(
		ctx context.Context, requester string,
	) ([]MintRequestInfo, errors.Error)
	GetToken(ctx context.Context, tokenId uint64) (*domain.Token, errors.Error)
	GetTokensByOwner(ctx context.Context, owner string) ([]domain.Token, errors.Error)
	GetTokenURI(ctx context.Context, tokenId uint64) (string, errors.Error)
	GetInfo(ctx context.Context) (*ServiceInfo, errors.Error)
}

// AssemblerService uploads a collection of club images and their metadata
// records to a content store.
type AssemblerService interface {
	Assemble(ctx context.Context, source fs.FS) ([]string, error)
}

type ServiceInfo struct {
	MintFee                 *big.Int
	TokenCounter            uint64
	Initialized             bool
	MetadataReferencesCount int
	Categories              []CategoryInfo
	Modulus                 uint64
	CoordinatorAddress      string
	ConsumerAddress         string
}

type CategoryInfo struct {
	Id         domain.CategoryId
	Name       string
	LowerBound uint64
	UpperBound uint64
}

type MintRequestInfo struct {
	RequestId string
	Requester string
	Payment   *big.Int
	Status    domain.MintRequestStatus
	// TokenId is set only when Status is FULFILLED.
	TokenId     *uint64
	CreatedAt   int64
	FulfilledAt int64
}
