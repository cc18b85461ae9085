package localstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/clubnft/clubd/internal/core/ports"
	contentstore "github.com/clubnft/clubd/internal/infrastructure/content-store"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const contentStoreDir = "content"

var ErrContentNotFound = errors.New("content not found")

type blobDTO struct {
	Cid       string
	Name      string
	Data      []byte
	CreatedAt int64
}

type store struct {
	db *badgerhold.Store
}

// NewContentStore returns a content store backed by badger. Config is made
// of the base directory, empty for an in-memory store, and an optional
// badger logger.
func NewContentStore(config ...interface{}) (ports.ContentStore, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, contentStoreDir)
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = logger
	opts.InMemory = len(dir) <= 0

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder: badgerhold.DefaultEncode,
		Decoder: badgerhold.DefaultDecode,
		Options: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open content store: %s", err)
	}
	return &store{db}, nil
}

func (s *store) Put(_ context.Context, name string, data []byte) (string, error) {
	c, err := contentstore.ComputeCID(data)
	if err != nil {
		return "", err
	}
	key := c.String()

	var existing blobDTO
	err = s.db.Get(key, &existing)
	if err == nil {
		return contentstore.IpfsAddress(c), nil
	}
	if !errors.Is(err, badgerhold.ErrNotFound) {
		return "", fmt.Errorf("failed to look up content %s: %w", key, err)
	}

	blob := blobDTO{
		Cid:       key,
		Name:      name,
		Data:      data,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.db.Upsert(key, blob); err != nil {
		return "", fmt.Errorf("failed to store content %s: %w", key, err)
	}
	return contentstore.IpfsAddress(c), nil
}

func (s *store) Get(_ context.Context, address string) ([]byte, error) {
	c, err := contentstore.ParseIpfsAddress(address)
	if err != nil {
		return nil, err
	}

	var blob blobDTO
	if err := s.db.Get(c.String(), &blob); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to get content %s: %w", c, err)
	}
	return blob.Data, nil
}

func (s *store) Close() {
	// nolint
	s.db.Close()
}
