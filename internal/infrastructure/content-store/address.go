package contentstore

import (
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

const IpfsScheme = "ipfs://"

// ComputeCID returns the CIDv1 of data, raw codec and sha2-256 multihash.
func ComputeCID(data []byte) (cid.Cid, error) {
	hash, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("failed to hash content: %w", err)
	}
	return cid.NewCidV1(cid.Raw, hash), nil
}

func IpfsAddress(c cid.Cid) string {
	return IpfsScheme + c.String()
}

// ParseIpfsAddress accepts both ipfs://<cid> and a bare cid.
func ParseIpfsAddress(address string) (cid.Cid, error) {
	c, err := cid.Decode(strings.TrimPrefix(address, IpfsScheme))
	if err != nil {
		return cid.Undef, fmt.Errorf("invalid content address %s: %w", address, err)
	}
	return c, nil
}
