package domain

import (
	"fmt"
	"math/big"
	"slices"
	"time"
)

// Collection holds the global counters of the minting state machine. It is
// initialized once and only TokenCounter changes afterwards.
type Collection struct {
	MintFee            *big.Int
	TokenCounter       uint64
	MetadataReferences []string
	Initialized        bool
	CreatedAt          int64
}

func NewCollection(mintFee *big.Int, metadataReferences []string) (*Collection, error) {
	if mintFee == nil || mintFee.Sign() < 0 {
		return nil, fmt.Errorf("mint fee must be a non negative amount")
	}
	if len(metadataReferences) == 0 {
		return nil, ErrEmptyMetadataReferences
	}
	for i, ref := range metadataReferences {
		if len(ref) == 0 {
			return nil, fmt.Errorf("metadata reference at index %d is empty", i)
		}
	}

	return &Collection{
		MintFee:            new(big.Int).Set(mintFee),
		MetadataReferences: slices.Clone(metadataReferences),
		Initialized:        true,
		CreatedAt:          time.Now().Unix(),
	}, nil
}

func (c *Collection) ValidatePayment(payment *big.Int) error {
	if payment == nil || payment.Cmp(c.MintFee) < 0 {
		return ErrInsufficientPayment
	}
	return nil
}

func (c *Collection) MetadataReference(index uint64) (string, error) {
	if index >= uint64(len(c.MetadataReferences)) {
		return "", ErrMetadataIndexOutOfRange
	}
	return c.MetadataReferences[index], nil
}

// HasSameConfig returns whether the given collection was initialized with the
// same fee and metadata references.
func (c *Collection) HasSameConfig(other Collection) bool {
	if c.MintFee == nil || other.MintFee == nil {
		return false
	}
	return c.MintFee.Cmp(other.MintFee) == 0 &&
		slices.Equal(c.MetadataReferences, other.MetadataReferences)
}

// Fulfill finalizes the given mint request and materializes its token.
// The category is resolved from the first random word and the metadata
// reference is picked with wrap-around indexing on the token id.
// Collection and request are left untouched if an error is returned.
func (c *Collection) Fulfill(
	request *MintRequest, table *CategoryTable, randomWords []*big.Int,
) (*Token, []Event, error) {
	if request == nil || request.Fulfilled {
		return nil, nil, ErrUnknownOrStaleRequest
	}
	if len(randomWords) == 0 {
		return nil, nil, ErrMissingRandomWords
	}
	if len(c.MetadataReferences) == 0 {
		return nil, nil, ErrEmptyMetadataReferences
	}

	category, err := table.SelectFromWord(randomWords[0])
	if err != nil {
		return nil, nil, err
	}

	tokenId := c.TokenCounter
	ref := c.MetadataReferences[tokenId%uint64(len(c.MetadataReferences))]
	now := time.Now().Unix()

	c.TokenCounter++
	request.Fulfilled = true
	request.TokenId = tokenId
	request.FulfilledAt = now

	token := &Token{
		TokenId:           tokenId,
		Category:          category,
		MetadataReference: ref,
		Owner:             request.Requester,
		RequestId:         request.RequestId,
		RandomWord:        new(big.Int).Set(randomWords[0]),
		MintedAt:          now,
	}
	event := TokenMinted{
		MintEvent: MintEvent{
			Id:   request.RequestId,
			Type: EventTypeTokenMinted,
		},
		TokenId:           tokenId,
		Owner:             request.Requester,
		Category:          category.Name,
		MetadataReference: ref,
		Timestamp:         now,
	}
	return token, []Event{event}, nil
}
