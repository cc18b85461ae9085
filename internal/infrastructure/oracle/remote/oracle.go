package remoteoracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/clubnft/clubd/internal/core/ports"
	"github.com/clubnft/clubd/internal/infrastructure/httpretry"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

const requestsPath = "/v1/requests"

type RandomnessRequest struct {
	Consumer    string `json:"consumer"`
	NumWords    uint32 `json:"numWords"`
	CallbackUrl string `json:"callbackUrl"`
}

type RandomnessResponse struct {
	RequestId string `json:"requestId"`
}

type oracle struct {
	gatewayUrl  string
	callbackUrl string
	coordinator common.Address

	httpClient  *http.Client
	retryPolicy httpretry.Policy
	started     atomic.Bool
}

// NewOracle returns a client of an external randomness gateway. The gateway
// delivers fulfillments, signed by coordinator, to callbackURL.
func NewOracle(gatewayURL, callbackURL, coordinator string) (ports.RandomnessOracle, error) {
	if len(gatewayURL) <= 0 {
		return nil, fmt.Errorf("missing gateway url")
	}
	if len(callbackURL) <= 0 {
		return nil, fmt.Errorf("missing callback url")
	}
	if !common.IsHexAddress(coordinator) {
		return nil, fmt.Errorf("invalid coordinator address %s", coordinator)
	}

	return &oracle{
		gatewayUrl:  strings.TrimSuffix(gatewayURL, "/"),
		callbackUrl: callbackURL,
		coordinator: common.HexToAddress(coordinator),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		retryPolicy: httpretry.DefaultPolicy(),
	}, nil
}

func (o *oracle) CoordinatorAddress() string {
	return o.coordinator.Hex()
}

// Start does not keep the handler: fulfillments come in through the webhook
// exposed at the callback url.
func (o *oracle) Start(handler ports.FulfillmentHandler) error {
	if handler == nil {
		return fmt.Errorf("missing fulfillment handler")
	}
	o.started.Store(true)
	log.Infof("expecting randomness fulfillments at %s", o.callbackUrl)
	return nil
}

func (o *oracle) Stop() {
	o.started.Store(false)
}

// Discard only forgets about the request: the gateway has no way to withdraw
// it, and a late fulfillment is rejected as unknown by the consumer.
func (o *oracle) Discard(_ context.Context, requestId string) error {
	log.Debugf("discarded randomness request %s", requestId)
	return nil
}

func (o *oracle) RequestRandomWords(
	ctx context.Context, consumer string, numWords uint32,
) (string, error) {
	if !o.started.Load() {
		return "", fmt.Errorf("oracle not started")
	}

	payload, err := json.Marshal(RandomnessRequest{
		Consumer:    consumer,
		NumWords:    numWords,
		CallbackUrl: o.callbackUrl,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal randomness request: %w", err)
	}

	resp, err := o.retryPolicy.Do(ctx, o.httpClient, func() (*http.Request, error) {
		req, err := http.NewRequest(
			http.MethodPost, o.gatewayUrl+requestsPath, bytes.NewReader(payload),
		)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to send randomness request: %w", err)
	}
	// nolint
	defer resp.Body.Close()

	var response RandomnessResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if len(response.RequestId) <= 0 {
		return "", fmt.Errorf("gateway returned an empty request id")
	}

	log.Debugf("randomness request %s sent to gateway", response.RequestId)
	return response.RequestId, nil
}
