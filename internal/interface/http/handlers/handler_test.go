package handlers_test

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clubnft/clubd/internal/core/application"
	"github.com/clubnft/clubd/internal/core/domain"
	"github.com/clubnft/clubd/internal/core/ports"
	localstore "github.com/clubnft/clubd/internal/infrastructure/content-store/local"
	"github.com/clubnft/clubd/internal/infrastructure/db"
	inmemorylivestore "github.com/clubnft/clubd/internal/infrastructure/live-store/inmemory"
	localoracle "github.com/clubnft/clubd/internal/infrastructure/oracle/local"
	"github.com/clubnft/clubd/internal/interface/http/handlers"
	"github.com/clubnft/clubd/internal/interface/http/middleware"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const (
	consumer  = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	requester = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

var metadataReferences = []string{
	"ipfs://QmHajdukMetadata",
	"ipfs://QmDinamoMetadata",
}

type testEnv struct {
	server       *httptest.Server
	key          *ecdsa.PrivateKey
	contentStore ports.ContentStore
}

func TestMintFlow(t *testing.T) {
	env := newTestEnv(t)

	t.Run("health", func(t *testing.T) {
		var resp handlers.HealthResponse
		status := env.do(t, http.MethodGet, "/healthz", nil, &resp)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "ok", resp.Status)
	})

	t.Run("queries", func(t *testing.T) {
		var info handlers.InfoResponse
		status := env.do(t, http.MethodGet, "/v1/info", nil, &info)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "1000", info.MintFee)
		require.True(t, info.Initialized)
		require.Equal(t, 2, info.MetadataReferencesCount)
		require.Len(t, info.Categories, 4)
		require.Equal(t, "DINAMO", info.Categories[1].Name)
		require.Equal(t, uint64(10), info.Categories[1].LowerBound)
		require.Equal(t, uint64(40), info.Categories[1].UpperBound)
		require.Equal(t, uint64(100), info.Modulus)
		require.Equal(t, crypto.PubkeyToAddress(env.key.PublicKey).Hex(), info.CoordinatorAddress)
		require.Equal(t, consumer, info.ConsumerAddress)

		var fee handlers.FeeResponse
		status = env.do(t, http.MethodGet, "/v1/fee", nil, &fee)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "1000", fee.MintFee)

		var initialized handlers.InitializedResponse
		status = env.do(t, http.MethodGet, "/v1/initialized", nil, &initialized)
		require.Equal(t, http.StatusOK, status)
		require.True(t, initialized.Initialized)

		var metadata handlers.MetadataResponse
		status = env.do(t, http.MethodGet, "/v1/metadata/1", nil, &metadata)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, metadataReferences[1], metadata.Reference)

		var errResp middleware.ErrorResponse
		status = env.do(t, http.MethodGet, "/v1/metadata/2", nil, &errResp)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "METADATA_INDEX_OUT_OF_RANGE", errResp.Name)

		status = env.do(t, http.MethodGet, "/v1/metadata/first", nil, &errResp)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "INVALID_ARGUMENT", errResp.Name)
	})

	var requestId string
	t.Run("request mint", func(t *testing.T) {
		var errResp middleware.ErrorResponse
		status := env.do(t, http.MethodPost, "/v1/mint", handlers.MintRequest{
			Requester: requester,
			Payment:   "999",
		}, &errResp)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "INSUFFICIENT_PAYMENT", errResp.Name)
		require.Equal(t, "1000", errResp.Metadata["mint_fee"])

		status = env.do(t, http.MethodPost, "/v1/mint", handlers.MintRequest{
			Requester: requester,
			Payment:   "a lot",
		}, &errResp)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "INVALID_ARGUMENT", errResp.Name)

		var resp handlers.MintResponse
		status = env.do(t, http.MethodPost, "/v1/mint", handlers.MintRequest{
			Requester: requester,
			Payment:   "1000",
		}, &resp)
		require.Equal(t, http.StatusAccepted, status)
		require.NotEmpty(t, resp.RequestId)
		requestId = resp.RequestId

		var request handlers.MintRequestResponse
		status = env.do(t, http.MethodGet, "/v1/requests/"+requestId, nil, &request)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "REQUESTED", request.Status)
		require.Equal(t, requester, request.Requester)
		require.Nil(t, request.TokenId)

		var counter handlers.CounterResponse
		status = env.do(t, http.MethodGet, "/v1/counter", nil, &counter)
		require.Equal(t, http.StatusOK, status)
		require.Zero(t, counter.TokenCounter)

		var pending handlers.PendingRequestsResponse
		status = env.do(t, http.MethodGet, "/v1/oracle/requests", nil, &pending)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, pending.Requests, 1)
		require.Equal(t, requestId, pending.Requests[0].RequestId)
	})

	t.Run("trigger fulfillment", func(t *testing.T) {
		var request handlers.MintRequestResponse
		status := env.do(
			t, http.MethodPost, "/v1/oracle/requests/"+requestId+"/fulfill", nil, &request,
		)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "FULFILLED", request.Status)
		require.NotNil(t, request.TokenId)
		require.Zero(t, *request.TokenId)

		var errResp middleware.ErrorResponse
		status = env.do(
			t, http.MethodPost, "/v1/oracle/requests/"+requestId+"/fulfill", nil, &errResp,
		)
		require.Equal(t, http.StatusNotFound, status)
		require.Equal(t, "UNKNOWN_OR_STALE_REQUEST", errResp.Name)

		var token handlers.TokenResponse
		status = env.do(t, http.MethodGet, "/v1/tokens/0", nil, &token)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "DINAMO", token.Category)
		require.Equal(t, requester, token.Owner)
		require.Equal(t, metadataReferences[0], token.MetadataReference)
		require.Equal(t, "22", token.RandomWord)

		var category handlers.CategoryResponse
		status = env.do(t, http.MethodGet, "/v1/tokens/0/category", nil, &category)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "DINAMO", category.Name)

		var uri handlers.TokenUriResponse
		status = env.do(t, http.MethodGet, "/v1/tokens/0/uri", nil, &uri)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, metadataReferences[0], uri.TokenUri)

		status = env.do(t, http.MethodGet, "/v1/tokens/7", nil, &errResp)
		require.Equal(t, http.StatusNotFound, status)
		require.Equal(t, "TOKEN_NOT_FOUND", errResp.Name)
	})

	t.Run("gateway webhook", func(t *testing.T) {
		var resp handlers.MintResponse
		status := env.do(t, http.MethodPost, "/v1/mint", handlers.MintRequest{
			Requester: requester,
			Payment:   "1500",
		}, &resp)
		require.Equal(t, http.StatusAccepted, status)

		foreignKey, err := crypto.GenerateKey()
		require.NoError(t, err)

		var errResp middleware.ErrorResponse
		status = env.do(
			t, http.MethodPost, "/v1/oracle/fulfill",
			fulfillmentRequest(t, foreignKey, resp.RequestId, 5), &errResp,
		)
		require.Equal(t, http.StatusForbidden, status)
		require.Equal(t, "ONLY_COORDINATOR_CAN_FULFILL", errResp.Name)

		var token handlers.TokenResponse
		status = env.do(
			t, http.MethodPost, "/v1/oracle/fulfill",
			fulfillmentRequest(t, env.key, resp.RequestId, 5), &token,
		)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, uint64(1), token.TokenId)
		require.Equal(t, "HAJDUK", token.Category)
		require.Equal(t, metadataReferences[1], token.MetadataReference)

		status = env.do(
			t, http.MethodPost, "/v1/oracle/fulfill",
			fulfillmentRequest(t, env.key, resp.RequestId, 5), &errResp,
		)
		require.Equal(t, http.StatusNotFound, status)
		require.Equal(t, "UNKNOWN_OR_STALE_REQUEST", errResp.Name)

		var tokens handlers.TokensResponse
		status = env.do(t, http.MethodGet, "/v1/owners/"+requester+"/tokens", nil, &tokens)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, tokens.Tokens, 2)

		var requests handlers.MintRequestsResponse
		status = env.do(
			t, http.MethodGet, "/v1/requesters/"+requester+"/requests", nil, &requests,
		)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, requests.Requests, 2)
		for _, request := range requests.Requests {
			require.Equal(t, "FULFILLED", request.Status)
		}
	})

	t.Run("content gateway", func(t *testing.T) {
		address, err := env.contentStore.Put(
			context.Background(), "HAJDUK.json", []byte(`{"name":"HAJDUK"}`),
		)
		require.NoError(t, err)

		resp, err := http.Get(env.server.URL + "/ipfs/" + strings.TrimPrefix(address, "ipfs://"))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var record map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&record))
		require.Equal(t, "HAJDUK", record["name"])

		var errResp middleware.ErrorResponse
		status := env.do(t, http.MethodGet, "/ipfs/not-a-cid", nil, &errResp)
		require.Equal(t, http.StatusNotFound, status)
		require.Equal(t, "CONTENT_NOT_FOUND", errResp.Name)
	})
}

func TestOptionalRoutes(t *testing.T) {
	appSvc, _, _ := newAppService(t)
	server := httptest.NewServer(handlers.NewHandler(appSvc, nil, nil, []string{"*"}))
	defer server.Close()
	env := &testEnv{server: server}

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/oracle/requests"},
		{http.MethodPost, "/v1/oracle/requests/0x01/fulfill"},
		{http.MethodGet, "/ipfs/bafkreigh2akiscaildc"},
	}
	for _, p := range paths {
		var errResp middleware.ErrorResponse
		status := env.do(t, p.method, p.path, nil, &errResp)
		require.Equal(t, http.StatusNotImplemented, status, p.path)
		require.Equal(t, "NOT_SUPPORTED", errResp.Name)
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	appSvc, oracle, key := newAppService(t, localoracle.WithEntropy(wordReader(22)))
	contentStore, err := localstore.NewContentStore("", nil)
	require.NoError(t, err)
	t.Cleanup(contentStore.Close)

	server := httptest.NewServer(handlers.NewHandler(appSvc, oracle, contentStore, nil))
	t.Cleanup(server.Close)

	return &testEnv{server, key, contentStore}
}

func newAppService(
	t *testing.T, opts ...localoracle.Option,
) (application.Service, localoracle.Oracle, *ecdsa.PrivateKey) {
	t.Helper()

	repoManager, err := db.NewService(db.ServiceConfig{
		EventStoreType:   "badger",
		DataStoreType:    "badger",
		EventStoreConfig: []interface{}{"", nil},
		DataStoreConfig:  []interface{}{"", nil},
	})
	require.NoError(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	oracle, err := localoracle.NewOracle(
		key, common.Hash{}, 1, inmemorylivestore.NewLiveStore(), opts...,
	)
	require.NoError(t, err)
	require.NoError(t, oracle.AddConsumer(context.Background(), consumer))

	appSvc, err := application.NewService(
		repoManager, oracle, nil, domain.DefaultCategoryTable(), consumer,
		big.NewInt(1000), metadataReferences,
	)
	require.NoError(t, err)
	require.Nil(t, appSvc.Start())
	t.Cleanup(appSvc.Stop)

	return appSvc, oracle, key
}

func (e *testEnv) do(t *testing.T, method, path string, body, out any) int {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func fulfillmentRequest(
	t *testing.T, key *ecdsa.PrivateKey, requestId string, words ...int64,
) handlers.FulfillmentRequest {
	fulfillment := domain.RandomnessFulfillment{RequestId: requestId}
	req := handlers.FulfillmentRequest{RequestId: requestId}
	for _, w := range words {
		fulfillment.RandomWords = append(fulfillment.RandomWords, big.NewInt(w))
		req.RandomWords = append(req.RandomWords, big.NewInt(w).String())
	}
	sig, err := crypto.Sign(fulfillment.Digest(), key)
	require.NoError(t, err)
	req.Signature = hexutil.Encode(sig)
	return req
}

// wordReader makes the local oracle draw exactly the given words.
func wordReader(words ...int64) *bytes.Reader {
	buf := make([]byte, 0, len(words)*32)
	for _, w := range words {
		buf = append(buf, common.BigToHash(big.NewInt(w)).Bytes()...)
	}
	return bytes.NewReader(buf)
}
