package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// RandomnessFulfillment is the callback delivered by the randomness oracle.
// Signature is the coordinator's signature of Digest().
type RandomnessFulfillment struct {
	RequestId   string
	RandomWords []*big.Int
	Signature   []byte
}

// Digest is keccak256(requestId || word0 || word1 ...), with every word
// encoded as 32 bytes big endian.
func (f RandomnessFulfillment) Digest() []byte {
	data := make([][]byte, 0, len(f.RandomWords)+1)
	data = append(data, []byte(f.RequestId))
	for _, word := range f.RandomWords {
		data = append(data, common.BigToHash(word).Bytes())
	}
	return crypto.Keccak256(data...)
}
