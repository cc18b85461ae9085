package pinatastore_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	contentstore "github.com/clubnft/clubd/internal/infrastructure/content-store"
	pinatastore "github.com/clubnft/clubd/internal/infrastructure/content-store/pinata"
	"github.com/stretchr/testify/require"
)

const jwt = "test-jwt"

type pinataMock struct {
	lock     sync.Mutex
	pins     map[string][]byte
	names    map[string]string
	metadata string
	options  string
}

func (m *pinataMock) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/pinning/pinFileToIPFS":
		if r.Header.Get("Authorization") != "Bearer "+jwt {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)

		c, err := contentstore.ComputeCID(data)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		m.lock.Lock()
		_, duplicate := m.pins[c.String()]
		m.pins[c.String()] = data
		m.names[c.String()] = header.Filename
		m.metadata = r.FormValue("pinataMetadata")
		m.options = r.FormValue("pinataOptions")
		m.lock.Unlock()

		_ = json.NewEncoder(w).Encode(map[string]any{
			"IpfsHash":    c.String(),
			"PinSize":     len(data),
			"Timestamp":   "2025-10-20T10:00:00Z",
			"isDuplicate": duplicate,
		})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/ipfs/"):
		m.lock.Lock()
		data, ok := m.pins[strings.TrimPrefix(r.URL.Path, "/ipfs/")]
		m.lock.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(data)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestContentStore(t *testing.T) {
	mock := &pinataMock{pins: make(map[string][]byte), names: make(map[string]string)}
	server := httptest.NewServer(mock)
	defer server.Close()

	ctx := context.Background()
	store, err := pinatastore.NewContentStore(server.URL, server.URL, jwt)
	require.NoError(t, err)
	defer store.Close()

	t.Run("put and get", func(t *testing.T) {
		address, err := store.Put(ctx, "RIJEKA.png", []byte("rijeka image"))
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(address, "ipfs://"))

		again, err := store.Put(ctx, "RIJEKA.png", []byte("rijeka image"))
		require.NoError(t, err)
		require.Equal(t, address, again)

		data, err := store.Get(ctx, address)
		require.NoError(t, err)
		require.Equal(t, []byte("rijeka image"), data)

		mock.lock.Lock()
		require.Equal(t, "RIJEKA.png", mock.names[strings.TrimPrefix(address, "ipfs://")])
		require.Contains(t, mock.metadata, `"name":"RIJEKA.png"`)
		require.Contains(t, mock.metadata, "upload_id")
		require.JSONEq(t, `{"cidVersion":1}`, mock.options)
		mock.lock.Unlock()
	})

	t.Run("missing content", func(t *testing.T) {
		c, err := contentstore.ComputeCID([]byte("never pinned"))
		require.NoError(t, err)

		_, err = store.Get(ctx, contentstore.IpfsAddress(c))
		require.ErrorContains(t, err, "404")
	})

	t.Run("unauthorized", func(t *testing.T) {
		other, err := pinatastore.NewContentStore(server.URL, server.URL, "wrong-jwt")
		require.NoError(t, err)

		address, err := other.Put(ctx, "OSIJEK.png", []byte("osijek image"))
		require.ErrorContains(t, err, "401")
		require.Empty(t, address)
	})

	t.Run("missing jwt", func(t *testing.T) {
		store, err := pinatastore.NewContentStore(server.URL, server.URL, "")
		require.ErrorContains(t, err, "missing pinata jwt")
		require.Nil(t, store)
	})
}
