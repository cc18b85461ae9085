package db_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/clubnft/clubd/internal/core/domain"
	"github.com/clubnft/clubd/internal/core/ports"
	"github.com/clubnft/clubd/internal/infrastructure/db"
	"github.com/stretchr/testify/require"
)

const (
	requester  = "0x00000000000000000000000000000000000000AA"
	requester2 = "0x00000000000000000000000000000000000000BB"
)

var (
	mintFee  = big.NewInt(1000)
	metadata = []string{
		"ipfs://QmHajduk",
		"ipfs://QmDinamo",
	}
	categories = domain.DefaultCategoryTable()
)

func TestService(t *testing.T) {
	tests := []struct {
		name   string
		config func(t *testing.T) (db.ServiceConfig, bool)
	}{
		{
			name: "repo_manager_with_badger_stores",
			config: func(t *testing.T) (db.ServiceConfig, bool) {
				return db.ServiceConfig{
					EventStoreType:   "badger",
					DataStoreType:    "badger",
					EventStoreConfig: []interface{}{"", nil},
					DataStoreConfig:  []interface{}{"", nil},
				}, true
			},
		},
		{
			name: "repo_manager_with_sqlite_stores",
			config: func(t *testing.T) (db.ServiceConfig, bool) {
				return db.ServiceConfig{
					EventStoreType:   "badger",
					DataStoreType:    "sqlite",
					EventStoreConfig: []interface{}{"", nil},
					DataStoreConfig:  []interface{}{t.TempDir()},
				}, true
			},
		},
		{
			name: "repo_manager_with_postgres_stores",
			config: func(t *testing.T) (db.ServiceConfig, bool) {
				dsn := os.Getenv("CLUBD_TEST_PG_DSN")
				if dsn == "" {
					return db.ServiceConfig{}, false
				}
				return db.ServiceConfig{
					EventStoreType:   "postgres",
					DataStoreType:    "postgres",
					EventStoreConfig: []interface{}{dsn, true},
					DataStoreConfig:  []interface{}{dsn, true},
				}, true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, ok := tt.config(t)
			if !ok {
				t.Skip("CLUBD_TEST_PG_DSN not set")
			}

			svc, err := db.NewService(config)
			require.NoError(t, err)
			require.NotNil(t, svc)

			testEventRepository(t, svc)
			testMintRepository(t, svc)

			svc.Close()
		})
	}

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			config      db.ServiceConfig
			expectedErr string
		}{
			{
				config: db.ServiceConfig{
					EventStoreType: "mongodb",
					DataStoreType:  "badger",
				},
				expectedErr: "event store type not supported",
			},
			{
				config: db.ServiceConfig{
					EventStoreType: "badger",
					DataStoreType:  "mongodb",
				},
				expectedErr: "invalid data store type: mongodb",
			},
			{
				config: db.ServiceConfig{
					EventStoreType:   "badger",
					DataStoreType:    "sqlite",
					EventStoreConfig: []interface{}{"", nil},
				},
				expectedErr: "invalid data store config",
			},
		}

		for _, f := range fixtures {
			svc, err := db.NewService(f.config)
			require.ErrorContains(t, err, f.expectedErr)
			require.Nil(t, svc)
		}
	})
}

func testEventRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_event_repository", func(t *testing.T) {
		ctx := context.Background()
		requestId := randomRequestId()

		received := make(chan []domain.Event, 2)
		svc.Events().RegisterEventsHandler(domain.MintTopic, func(events []domain.Event) {
			received <- events
		})
		defer svc.Events().ClearRegisteredHandlers(domain.MintTopic)

		requested := domain.MintRequested{
			MintEvent: domain.MintEvent{Id: requestId, Type: domain.EventTypeMintRequested},
			Requester: requester,
			Payment:   "1000",
			Timestamp: 1701190270,
		}
		err := svc.Events().Save(ctx, domain.MintTopic, requestId, []domain.Event{requested})
		require.NoError(t, err)

		events := waitForEvents(t, received)
		require.Len(t, events, 1)
		require.Equal(t, requested, events[0])

		minted := domain.TokenMinted{
			MintEvent:         domain.MintEvent{Id: requestId, Type: domain.EventTypeTokenMinted},
			TokenId:           0,
			Owner:             requester,
			Category:          "DINAMO",
			MetadataReference: metadata[0],
			Timestamp:         1701190300,
		}
		err = svc.Events().Save(ctx, domain.MintTopic, requestId, []domain.Event{minted})
		require.NoError(t, err)

		// Handlers are given the whole history of the request.
		events = waitForEvents(t, received)
		require.Len(t, events, 2)
		require.Equal(t, requested, events[0])
		require.Equal(t, minted, events[1])

		// Events of other requests are not mixed in.
		otherId := randomRequestId()
		other := requested
		other.Id = otherId
		err = svc.Events().Save(ctx, domain.MintTopic, otherId, []domain.Event{other})
		require.NoError(t, err)

		events = waitForEvents(t, received)
		require.Len(t, events, 1)
		require.Equal(t, other, events[0])
	})
}

func testMintRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_mint_repository", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.Mints()

		collection, err := repo.GetCollection(ctx)
		require.NoError(t, err)
		require.Nil(t, collection)

		newCollection, err := domain.NewCollection(mintFee, metadata)
		require.NoError(t, err)

		err = repo.InitCollection(ctx, *newCollection)
		require.NoError(t, err)

		err = repo.InitCollection(ctx, *newCollection)
		require.ErrorIs(t, err, domain.ErrAlreadyInitialized)

		collection, err = repo.GetCollection(ctx)
		require.NoError(t, err)
		require.NotNil(t, collection)
		require.Zero(t, collection.MintFee.Cmp(mintFee))
		require.Equal(t, metadata, collection.MetadataReferences)
		require.True(t, collection.Initialized)
		require.Zero(t, collection.TokenCounter)

		requestIds := []string{randomRequestId(), randomRequestId(), randomRequestId()}
		requesters := []string{requester, requester, requester2}
		for i, requestId := range requestIds {
			request, _, err := domain.NewMintRequest(requestId, requesters[i], mintFee)
			require.NoError(t, err)
			err = repo.AddMintRequest(ctx, *request)
			require.NoError(t, err)
		}

		dup, _, err := domain.NewMintRequest(requestIds[0], requester, mintFee)
		require.NoError(t, err)
		err = repo.AddMintRequest(ctx, *dup)
		require.ErrorIs(t, err, domain.ErrMintRequestExists)

		request, err := repo.GetMintRequest(ctx, requestIds[0])
		require.NoError(t, err)
		require.NotNil(t, request)
		require.Equal(t, requester, request.Requester)
		require.Zero(t, request.Payment.Cmp(mintFee))
		require.Equal(t, domain.MintRequestStatusRequested, request.Status())

		request, err = repo.GetMintRequest(ctx, randomRequestId())
		require.NoError(t, err)
		require.Nil(t, request)

		requests, err := repo.GetMintRequestsByRequester(ctx, requester)
		require.NoError(t, err)
		require.Len(t, requests, 2)
		ids := []string{requests[0].RequestId, requests[1].RequestId}
		require.ElementsMatch(t, requestIds[:2], ids)

		fulfill := func(word int64) domain.FulfillFn {
			return func(
				collection *domain.Collection, request *domain.MintRequest,
			) (*domain.Token, error) {
				token, _, err := collection.Fulfill(
					request, categories, []*big.Int{big.NewInt(word)},
				)
				return token, err
			}
		}

		// A failing fulfillment leaves everything untouched.
		errBoom := errors.New("boom")
		token, err := repo.Fulfill(
			ctx, requestIds[0],
			func(collection *domain.Collection, request *domain.MintRequest) (*domain.Token, error) {
				collection.TokenCounter++
				request.Fulfilled = true
				return nil, errBoom
			},
		)
		require.ErrorIs(t, err, errBoom)
		require.Nil(t, token)

		collection, err = repo.GetCollection(ctx)
		require.NoError(t, err)
		require.Zero(t, collection.TokenCounter)

		token, err = repo.Fulfill(ctx, requestIds[0], fulfill(22))
		require.NoError(t, err)
		require.NotNil(t, token)
		require.Equal(t, uint64(0), token.TokenId)
		require.Equal(t, "DINAMO", token.Category.Name)
		require.Equal(t, metadata[0], token.MetadataReference)

		token, err = repo.Fulfill(ctx, requestIds[0], fulfill(22))
		require.ErrorIs(t, err, domain.ErrUnknownOrStaleRequest)
		require.Nil(t, token)

		token, err = repo.Fulfill(ctx, randomRequestId(), fulfill(22))
		require.ErrorIs(t, err, domain.ErrUnknownOrStaleRequest)
		require.Nil(t, token)

		token, err = repo.Fulfill(ctx, requestIds[2], fulfill(5))
		require.NoError(t, err)
		require.Equal(t, uint64(1), token.TokenId)
		require.Equal(t, "HAJDUK", token.Category.Name)
		require.Equal(t, metadata[1], token.MetadataReference)

		token, err = repo.Fulfill(ctx, requestIds[1], fulfill(99))
		require.NoError(t, err)
		require.Equal(t, uint64(2), token.TokenId)
		require.Equal(t, "OSIJEK", token.Category.Name)
		require.Equal(t, metadata[0], token.MetadataReference)

		collection, err = repo.GetCollection(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(3), collection.TokenCounter)

		request, err = repo.GetMintRequest(ctx, requestIds[0])
		require.NoError(t, err)
		require.True(t, request.Fulfilled)
		require.Equal(t, uint64(0), request.TokenId)
		require.Equal(t, domain.MintRequestStatusFulfilled, request.Status())

		got, err := repo.GetToken(ctx, 0)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, requester, got.Owner)
		require.Equal(t, requestIds[0], got.RequestId)
		require.Equal(t, domain.CategoryDinamo, got.Category.Id)
		require.Zero(t, got.RandomWord.Cmp(big.NewInt(22)))

		got, err = repo.GetToken(ctx, 42)
		require.NoError(t, err)
		require.Nil(t, got)

		tokens, err := repo.GetTokensByOwner(ctx, requester)
		require.NoError(t, err)
		require.Len(t, tokens, 2)
		require.Equal(t, uint64(0), tokens[0].TokenId)
		require.Equal(t, uint64(2), tokens[1].TokenId)

		tokens, err = repo.GetTokensByOwner(ctx, requester2)
		require.NoError(t, err)
		require.Len(t, tokens, 1)
		require.Equal(t, uint64(1), tokens[0].TokenId)

		// Only pending requests can be deleted.
		pendingId := randomRequestId()
		pending, _, err := domain.NewMintRequest(pendingId, requester2, mintFee)
		require.NoError(t, err)
		err = repo.AddMintRequest(ctx, *pending)
		require.NoError(t, err)

		err = repo.DeleteMintRequest(ctx, pendingId)
		require.NoError(t, err)
		request, err = repo.GetMintRequest(ctx, pendingId)
		require.NoError(t, err)
		require.Nil(t, request)

		err = repo.DeleteMintRequest(ctx, pendingId)
		require.NoError(t, err)

		err = repo.DeleteMintRequest(ctx, requestIds[0])
		require.NoError(t, err)
		request, err = repo.GetMintRequest(ctx, requestIds[0])
		require.NoError(t, err)
		require.NotNil(t, request)
		require.True(t, request.Fulfilled)
	})
}

func waitForEvents(t *testing.T, ch <-chan []domain.Event) []domain.Event {
	t.Helper()
	select {
	case events := <-ch:
		return events
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for events")
		return nil
	}
}

func randomRequestId() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return "0x" + hex.EncodeToString(buf)
}
