package ports

import "context"

// ContentStore is a content addressed blob store: identical data always maps
// to the same address.
type ContentStore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Get(ctx context.Context, address string) ([]byte, error)
	Close()
}
