package e2e_test

import (
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/clubnft/clubd/internal/interface/http/handlers"
	"github.com/stretchr/testify/require"
)

const (
	serverUrl = "127.0.0.1:7070"
	alice     = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	bob       = "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"
)

// The suite runs against the docker compose setup, with the local oracle
// fulfilling only on demand.
func TestMain(m *testing.M) {
	if os.Getenv("CLUBD_E2E") == "" {
		log.Println("CLUBD_E2E not set, skipping e2e tests")
		os.Exit(0)
	}
	if !serverIsUp() {
		log.Fatalf("clubd is not reachable at %s", serverUrl)
	}

	code := m.Run()
	os.Exit(code)
}

func TestMint(t *testing.T) {
	t.Run("request and fulfill", func(t *testing.T) {
		info := getJSON[handlers.InfoResponse](t, "/v1/info")
		require.True(t, info.Initialized)
		require.NotZero(t, info.MetadataReferencesCount)

		requestId := requestMint(t, alice)

		request := getJSON[handlers.MintRequestResponse](t, "/v1/requests/"+requestId)
		require.Equal(t, "REQUESTED", request.Status)
		require.Nil(t, request.TokenId)

		pending := getJSON[handlers.PendingRequestsResponse](t, "/v1/oracle/requests")
		require.Contains(t, pendingIds(pending), requestId)

		request = fulfill(t, requestId)
		require.Equal(t, "FULFILLED", request.Status)
		require.NotNil(t, request.TokenId)

		token := getJSON[handlers.TokenResponse](t, fmt.Sprintf("/v1/tokens/%d", *request.TokenId))
		require.Equal(t, alice, token.Owner)
		require.Equal(t, requestId, token.RequestId)
		require.NotEmpty(t, token.MetadataReference)

		category := getJSON[handlers.CategoryResponse](
			t, fmt.Sprintf("/v1/tokens/%d/category", *request.TokenId),
		)
		require.Equal(t, token.Category, category.Name)

		counter := getJSON[handlers.CounterResponse](t, "/v1/counter")
		require.Greater(t, counter.TokenCounter, *request.TokenId)
	})

	t.Run("fulfill twice", func(t *testing.T) {
		requestId := requestMint(t, bob)
		fulfill(t, requestId)

		_, err := runClubdCommand("oracle", "fulfill", "--id", requestId)
		require.Error(t, err)
		require.Contains(t, err.Error(), "UNKNOWN_OR_STALE_REQUEST")
	})

	t.Run("insufficient payment", func(t *testing.T) {
		_, err := runClubdCommand("mint", "--requester", alice, "--payment", "1")
		require.Error(t, err)
		require.Contains(t, err.Error(), "INSUFFICIENT_PAYMENT")
	})

	t.Run("tokens by owner", func(t *testing.T) {
		tokens := getJSON[handlers.TokensResponse](t, "/v1/owners/"+bob+"/tokens")
		require.NotEmpty(t, tokens.Tokens)
		for _, token := range tokens.Tokens {
			require.Equal(t, bob, token.Owner)
		}
	})
}

func pendingIds(resp handlers.PendingRequestsResponse) []string {
	ids := make([]string, 0, len(resp.Requests))
	for _, r := range resp.Requests {
		ids = append(ids, r.RequestId)
	}
	return ids
}
