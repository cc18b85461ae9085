package remoteoracle_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/clubnft/clubd/internal/core/domain"
	remoteoracle "github.com/clubnft/clubd/internal/infrastructure/oracle/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	consumer    = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	coordinator = "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"
	callbackUrl = "http://localhost:7070/v1/oracle/fulfill"
	requestId   = "0xf3d0b1f4a5d0a4c1e3e2d8c7b6a5f4e3d2c1b0a9f8e7d6c5b4a3f2e1d0c9b8a7"
)

func noopHandler(context.Context, domain.RandomnessFulfillment) error { return nil }

func TestRequestRandomWords(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/requests", r.URL.Path)

		// First attempt fails to exercise the retry policy.
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		var req remoteoracle.RandomnessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, consumer, req.Consumer)
		assert.Equal(t, uint32(1), req.NumWords)
		assert.Equal(t, callbackUrl, req.CallbackUrl)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(remoteoracle.RandomnessResponse{RequestId: requestId})
	}))
	defer server.Close()

	oracle, err := remoteoracle.NewOracle(server.URL+"/", callbackUrl, coordinator)
	require.NoError(t, err)
	require.Equal(t, coordinator, oracle.CoordinatorAddress())

	_, err = oracle.RequestRandomWords(context.Background(), consumer, 1)
	require.ErrorContains(t, err, "oracle not started")

	require.NoError(t, oracle.Start(noopHandler))
	defer oracle.Stop()

	got, err := oracle.RequestRandomWords(context.Background(), consumer, 1)
	require.NoError(t, err)
	require.Equal(t, requestId, got)
	require.Equal(t, int32(2), calls.Load())
}

func TestRequestRandomWordsFailure(t *testing.T) {
	fixtures := []struct {
		name        string
		handler     http.HandlerFunc
		expectedErr string
	}{
		{
			name: "rejected",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte("unknown consumer"))
			},
			expectedErr: "unknown consumer",
		},
		{
			name: "empty request id",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			},
			expectedErr: "empty request id",
		},
		{
			name: "malformed response",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			expectedErr: "failed to decode gateway response",
		},
	}

	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			server := httptest.NewServer(f.handler)
			defer server.Close()

			oracle, err := remoteoracle.NewOracle(server.URL, callbackUrl, coordinator)
			require.NoError(t, err)
			require.NoError(t, oracle.Start(noopHandler))

			got, err := oracle.RequestRandomWords(context.Background(), consumer, 1)
			require.ErrorContains(t, err, f.expectedErr)
			require.Empty(t, got)
		})
	}
}

func TestStartStopConcurrently(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(remoteoracle.RandomnessResponse{RequestId: requestId})
	}))
	defer server.Close()

	oracle, err := remoteoracle.NewOracle(server.URL, callbackUrl, coordinator)
	require.NoError(t, err)

	wg := &sync.WaitGroup{}
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = oracle.Start(noopHandler)
			oracle.Stop()
		}()
		go func() {
			defer wg.Done()
			_, _ = oracle.RequestRandomWords(context.Background(), consumer, 1)
		}()
	}
	wg.Wait()

	_, err = oracle.RequestRandomWords(context.Background(), consumer, 1)
	require.ErrorContains(t, err, "oracle not started")
	require.NoError(t, oracle.Discard(context.Background(), requestId))
}

func TestNewOracle(t *testing.T) {
	fixtures := []struct {
		gatewayUrl  string
		callbackUrl string
		coordinator string
		expectedErr string
	}{
		{"", callbackUrl, coordinator, "missing gateway url"},
		{"http://gateway", "", coordinator, "missing callback url"},
		{"http://gateway", callbackUrl, "0xinvalid", "invalid coordinator address"},
	}
	for _, f := range fixtures {
		oracle, err := remoteoracle.NewOracle(f.gatewayUrl, f.callbackUrl, f.coordinator)
		require.ErrorContains(t, err, f.expectedErr)
		require.Nil(t, oracle)
	}
}
