package domain

import "math/big"

type Token struct {
	TokenId           uint64
	Category          Category
	MetadataReference string
	Owner             string
	RequestId         string
	RandomWord        *big.Int
	MintedAt          int64
}
