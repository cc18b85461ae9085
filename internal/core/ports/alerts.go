package ports

import "context"

const (
	TokenMinted      Topic = "Token Minted"
	CategoryOutRange Topic = "Category Out Of Range"
)

type Topic string

type Alerts interface {
	Publish(ctx context.Context, topic Topic, message interface{}) error
}

type TokenMintedAlert struct {
	TokenId           uint64
	RequestId         string
	Owner             string
	Category          string
	MetadataReference string
	TokenCounter      uint64
}

type CategoryOutOfRangeAlert struct {
	RequestId   string
	RandomValue string
	Modulus     uint64
}
