package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/clubnft/clubd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	source := fstest.MapFS{
		"RIJEKA.png":         {Data: []byte("rijeka")},
		"HAJDUK.png":         {Data: []byte("hajduk")},
		"OSIJEK.png":         {Data: []byte("osijek")},
		"DINAMO.png":         {Data: []byte("dinamo")},
		"README.md":          {Data: []byte("not an asset")},
		"extra/VARAZDIN.jpg": {Data: []byte("varazdin")},
	}

	t.Run("valid", func(t *testing.T) {
		store := newMockContentStore()
		svc := NewAssemblerService(store, domain.DefaultCategoryTable())

		refs, err := svc.Assemble(context.Background(), source)
		require.NoError(t, err)
		require.Len(t, refs, 5)

		expected := []struct {
			name  string
			fans  string
			image string
		}{
			{"DINAMO", "BBB", "dinamo"},
			{"HAJDUK", "TORCIDA", "hajduk"},
			{"OSIJEK", "KOHORTA", "osijek"},
			{"RIJEKA", "ARMADA", "rijeka"},
			{"VARAZDIN", "", "varazdin"},
		}
		for i, e := range expected {
			data, err := store.Get(context.Background(), refs[i])
			require.NoError(t, err)

			var record domain.AssetRecord
			require.NoError(t, json.Unmarshal(data, &record))
			require.Equal(t, e.name, record.Name)
			require.Equal(t, e.fans, record.Fans)
			require.Equal(t, fmt.Sprintf(" %s with %s fans!", e.name, e.fans), record.Description)
			require.Equal(t, store.address([]byte(e.image)), record.Image)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		svc := NewAssemblerService(newMockContentStore(), nil)

		refs, err := svc.Assemble(context.Background(), source)
		require.NoError(t, err)
		otherRefs, err := svc.Assemble(context.Background(), source)
		require.NoError(t, err)
		require.Equal(t, refs, otherRefs)
	})

	t.Run("invalid", func(t *testing.T) {
		svc := NewAssemblerService(newMockContentStore(), nil)

		refs, err := svc.Assemble(context.Background(), fstest.MapFS{
			"README.md": {Data: []byte("no images here")},
		})
		require.Error(t, err)
		require.Nil(t, refs)

		failing := newMockContentStore()
		failing.err = fmt.Errorf("store unavailable")
		svc = NewAssemblerService(failing, nil)

		refs, err = svc.Assemble(context.Background(), source)
		require.ErrorContains(t, err, "store unavailable")
		require.Nil(t, refs)
	})
}

type mockContentStore struct {
	lock sync.Mutex
	data map[string][]byte
	err  error
}

func newMockContentStore() *mockContentStore {
	return &mockContentStore{data: make(map[string][]byte)}
}

func (m *mockContentStore) address(data []byte) string {
	hash := sha256.Sum256(data)
	return "mock://" + hex.EncodeToString(hash[:])
}

func (m *mockContentStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	address := m.address(data)
	m.data[address] = data
	return address, nil
}

func (m *mockContentStore) Get(ctx context.Context, address string) ([]byte, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	data, ok := m.data[address]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return data, nil
}

func (m *mockContentStore) Close() {}
