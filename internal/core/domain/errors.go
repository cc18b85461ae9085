package domain

import "errors"

var (
	ErrInsufficientPayment     = errors.New("payment is lower than mint fee")
	ErrOutOfRange              = errors.New("random value is out of category range")
	ErrUnknownOrStaleRequest   = errors.New("mint request not found or already fulfilled")
	ErrMissingRandomWords      = errors.New("missing random words")
	ErrMetadataIndexOutOfRange = errors.New("metadata reference index out of range")
	ErrEmptyMetadataReferences = errors.New("metadata references must not be empty")
	ErrAlreadyInitialized      = errors.New("collection already initialized")
	ErrMintRequestExists       = errors.New("mint request already exists")
)
