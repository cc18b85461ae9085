package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	grpccodes "google.golang.org/grpc/codes"
)

// generateErrorFixtures creates test fixtures with sample metadata for each error type
func generateErrorFixtures() []Error {
	return []Error{
		INTERNAL_ERROR.New("Internal server error occurred").
			WithMetadata(map[string]any{
				"component": "database",
				"operation": "query",
			}),

		INVALID_ARGUMENT.New("missing random words").
			WithMetadata(map[string]any{"field": "random_words"}),

		INSUFFICIENT_PAYMENT.New("payment below mint fee").
			WithMetadata(PaymentMetadata{Payment: "999", MintFee: "1000"}),

		CATEGORY_OUT_OF_RANGE.New("random value out of range").
			WithMetadata(RandomValueMetadata{RandomValue: "112", Modulus: 100}),

		UNKNOWN_OR_STALE_REQUEST.New("request not found").
			WithMetadata(RequestMetadata{
				RequestId: "0x5c6d2c8a0f1b3e4d7a9c2b1e0f3d4c5b6a7e8f9d0c1b2a3e4f5d6c7b8a9e0f1d",
			}),

		ONLY_COORDINATOR_CAN_FULFILL.New("unexpected signer").
			WithMetadata(CoordinatorMetadata{
				Expected: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
				Got:      "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC",
			}),

		NOT_INITIALIZED.New("collection not initialized"),

		ALREADY_INITIALIZED.New("collection already initialized"),

		TOKEN_NOT_FOUND.New("token not found").WithMetadata(TokenMetadata{TokenId: 7}),

		METADATA_INDEX_OUT_OF_RANGE.New("index out of range").
			WithMetadata(IndexMetadata{Index: 4, Length: 4}),

		CONTENT_NOT_FOUND.New("content not found").
			WithMetadata(map[string]any{"cid": "bafkreigh2akiscaildc"}),

		NOT_SUPPORTED.New("manual fulfillment not supported"),
	}
}

func TestErrors(t *testing.T) {
	fixtures := generateErrorFixtures()

	codes := make(map[uint16]struct{})
	for _, err := range fixtures {
		require.NotNil(t, err)
		require.NotEmpty(t, err.Error())
		require.NotEmpty(t, err.CodeName())
		require.NotEqual(t, grpccodes.OK, err.GrpcCode())
		require.NotNil(t, err.Log())

		_, ok := codes[err.Code()]
		require.False(t, ok, "duplicated code %d", err.Code())
		codes[err.Code()] = struct{}{}
	}
}

func TestErrorMetadata(t *testing.T) {
	err := INSUFFICIENT_PAYMENT.New("payment below mint fee").
		WithMetadata(PaymentMetadata{Payment: "999", MintFee: "1000"})

	require.Equal(t, map[string]string{"payment": "999", "mint_fee": "1000"}, err.Metadata())
	require.Equal(
		t, "INSUFFICIENT_PAYMENT (2): payment below mint fee", err.Error(),
	)

	noMetadata := NOT_INITIALIZED.New("collection not initialized")
	require.Empty(t, noMetadata.Metadata())
}

func TestErrorWrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := INTERNAL_ERROR.Wrap(cause)

	require.ErrorIs(t, err, cause)
	require.Equal(t, grpccodes.Internal, err.GrpcCode())
}
