package handlers

import (
	goerrors "errors"
	"math/big"
	"net/http"

	"github.com/clubnft/clubd/internal/core/domain"
	"github.com/clubnft/clubd/internal/core/ports"
	"github.com/clubnft/clubd/pkg/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
)

var errNoManualFulfiller = errors.NOT_SUPPORTED.New(
	"the randomness oracle does not support manual fulfillment",
)

// fulfill is the webhook called by the oracle gateway.
func (h *handler) fulfill(w http.ResponseWriter, r *http.Request) error {
	var req FulfillmentRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	words := make([]*big.Int, 0, len(req.RandomWords))
	for _, word := range req.RandomWords {
		n, ok := new(big.Int).SetString(word, 0)
		if !ok {
			return errors.INVALID_ARGUMENT.New("invalid random word %s", word).
				WithMetadata(map[string]any{"request_id": req.RequestId})
		}
		words = append(words, n)
	}
	sig, err := hexutil.Decode(req.Signature)
	if err != nil {
		return errors.INVALID_ARGUMENT.New("invalid signature: %s", err).
			WithMetadata(map[string]any{"request_id": req.RequestId})
	}

	token, aerr := h.appSvc.FulfillRandomWords(r.Context(), domain.RandomnessFulfillment{
		RequestId:   req.RequestId,
		RandomWords: words,
		Signature:   sig,
	})
	if aerr != nil {
		return aerr
	}
	writeJSON(w, http.StatusOK, toTokenResponse(*token))
	return nil
}

func (h *handler) getPendingRequests(w http.ResponseWriter, r *http.Request) error {
	if h.fulfiller == nil {
		return errNoManualFulfiller
	}

	pending, err := h.fulfiller.PendingRequests(r.Context())
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}

	resp := PendingRequestsResponse{Requests: make([]PendingRequest, 0, len(pending))}
	for _, request := range pending {
		resp.Requests = append(resp.Requests, PendingRequest{
			RequestId: request.RequestId,
			Consumer:  request.Consumer,
			NumWords:  request.NumWords,
			Nonce:     request.Nonce,
			CreatedAt: request.Timestamp.Unix(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

// triggerFulfillment asks the local coordinator to fulfill a pending request.
func (h *handler) triggerFulfillment(w http.ResponseWriter, r *http.Request) error {
	if h.fulfiller == nil {
		return errNoManualFulfiller
	}

	requestId := chi.URLParam(r, "requestId")
	if err := h.fulfiller.FulfillRandomWords(r.Context(), requestId); err != nil {
		if goerrors.Is(err, ports.ErrRequestNotFound) {
			return errors.UNKNOWN_OR_STALE_REQUEST.Wrap(err).
				WithMetadata(errors.RequestMetadata{RequestId: requestId})
		}
		return err
	}

	request, aerr := h.appSvc.GetMintRequest(r.Context(), requestId)
	if aerr != nil {
		return aerr
	}
	writeJSON(w, http.StatusOK, toMintRequestResponse(*request))
	return nil
}
