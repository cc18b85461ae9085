package domain

import "context"

// FulfillFn finalizes the given request against the collection. The request
// is nil if it does not exist.
type FulfillFn func(collection *Collection, request *MintRequest) (*Token, error)

type MintRepository interface {
	// GetCollection returns nil if the collection is not initialized yet.
	GetCollection(ctx context.Context) (*Collection, error)
	InitCollection(ctx context.Context, collection Collection) error
	AddMintRequest(ctx context.Context, request MintRequest) error
	// DeleteMintRequest removes a pending request. Fulfilled or missing
	// requests are left untouched.
	DeleteMintRequest(ctx context.Context, requestId string) error
	GetMintRequest(ctx context.Context, requestId string) (*MintRequest, error)
	GetMintRequestsByRequester(ctx context.Context, requester string) ([]MintRequest, error)
	GetToken(ctx context.Context, tokenId uint64) (*Token, error)
	GetTokensByOwner(ctx context.Context, owner string) ([]Token, error)
	// Fulfill runs fulfillFn and persists the updated counter, request and
	// the returned token in a single transaction.
	Fulfill(ctx context.Context, requestId string, fulfillFn FulfillFn) (*Token, error)
	Close()
}

type EventRepository interface {
	Save(ctx context.Context, topic, id string, events []Event) error
	RegisterEventsHandler(topic string, handler func(events []Event))
	ClearRegisteredHandlers(topics ...string)
	Close()
}
