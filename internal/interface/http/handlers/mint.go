package handlers

import (
	"math/big"
	"net/http"

	"github.com/clubnft/clubd/internal/core/application"
	"github.com/clubnft/clubd/internal/core/domain"
	"github.com/clubnft/clubd/pkg/errors"
	"github.com/go-chi/chi/v5"
)

func (h *handler) getInfo(w http.ResponseWriter, r *http.Request) error {
	info, err := h.appSvc.GetInfo(r.Context())
	if err != nil {
		return err
	}

	categories := make([]CategoryInfo, 0, len(info.Categories))
	for _, c := range info.Categories {
		categories = append(categories, CategoryInfo{
			Id:         uint8(c.Id),
			Name:       c.Name,
			LowerBound: c.LowerBound,
			UpperBound: c.UpperBound,
		})
	}
	mintFee := ""
	if info.MintFee != nil {
		mintFee = info.MintFee.String()
	}

	writeJSON(w, http.StatusOK, InfoResponse{
		MintFee:                 mintFee,
		TokenCounter:            info.TokenCounter,
		Initialized:             info.Initialized,
		MetadataReferencesCount: info.MetadataReferencesCount,
		Categories:              categories,
		Modulus:                 info.Modulus,
		CoordinatorAddress:      info.CoordinatorAddress,
		ConsumerAddress:         info.ConsumerAddress,
	})
	return nil
}

func (h *handler) getMintFee(w http.ResponseWriter, r *http.Request) error {
	fee, err := h.appSvc.GetMintFee(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, FeeResponse{MintFee: fee.String()})
	return nil
}

func (h *handler) getTokenCounter(w http.ResponseWriter, r *http.Request) error {
	counter, err := h.appSvc.GetTokenCounter(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, CounterResponse{TokenCounter: counter})
	return nil
}

func (h *handler) isInitialized(w http.ResponseWriter, r *http.Request) error {
	initialized, err := h.appSvc.IsInitialized(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, InitializedResponse{Initialized: initialized})
	return nil
}

func (h *handler) getMetadataReference(w http.ResponseWriter, r *http.Request) error {
	index, err := parseUint("index", chi.URLParam(r, "index"))
	if err != nil {
		return err
	}
	reference, aerr := h.appSvc.GetMetadataReference(r.Context(), index)
	if aerr != nil {
		return aerr
	}
	writeJSON(w, http.StatusOK, MetadataResponse{Index: index, Reference: reference})
	return nil
}

func (h *handler) requestMint(w http.ResponseWriter, r *http.Request) error {
	var req MintRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	payment, ok := new(big.Int).SetString(req.Payment, 10)
	if !ok {
		return errors.INVALID_ARGUMENT.New("invalid payment %s", req.Payment).
			WithMetadata(map[string]any{"payment": req.Payment})
	}

	requestId, err := h.appSvc.RequestMint(r.Context(), req.Requester, payment)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusAccepted, MintResponse{RequestId: requestId})
	return nil
}

func (h *handler) getMintRequest(w http.ResponseWriter, r *http.Request) error {
	request, err := h.appSvc.GetMintRequest(r.Context(), chi.URLParam(r, "requestId"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toMintRequestResponse(*request))
	return nil
}

func (h *handler) getMintRequests(w http.ResponseWriter, r *http.Request) error {
	requests, err := h.appSvc.GetMintRequestsByRequester(
		r.Context(), chi.URLParam(r, "requester"),
	)
	if err != nil {
		return err
	}

	resp := MintRequestsResponse{Requests: make([]MintRequestResponse, 0, len(requests))}
	for _, request := range requests {
		resp.Requests = append(resp.Requests, toMintRequestResponse(request))
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *handler) getToken(w http.ResponseWriter, r *http.Request) error {
	tokenId, err := parseUint("tokenId", chi.URLParam(r, "tokenId"))
	if err != nil {
		return err
	}
	token, aerr := h.appSvc.GetToken(r.Context(), tokenId)
	if aerr != nil {
		return aerr
	}
	writeJSON(w, http.StatusOK, toTokenResponse(*token))
	return nil
}

func (h *handler) getCategory(w http.ResponseWriter, r *http.Request) error {
	tokenId, err := parseUint("tokenId", chi.URLParam(r, "tokenId"))
	if err != nil {
		return err
	}
	category, aerr := h.appSvc.GetCategory(r.Context(), tokenId)
	if aerr != nil {
		return aerr
	}
	writeJSON(w, http.StatusOK, CategoryResponse{Id: uint8(category.Id), Name: category.Name})
	return nil
}

func (h *handler) getTokenUri(w http.ResponseWriter, r *http.Request) error {
	tokenId, err := parseUint("tokenId", chi.URLParam(r, "tokenId"))
	if err != nil {
		return err
	}
	uri, aerr := h.appSvc.GetTokenURI(r.Context(), tokenId)
	if aerr != nil {
		return aerr
	}
	writeJSON(w, http.StatusOK, TokenUriResponse{TokenId: tokenId, TokenUri: uri})
	return nil
}

func (h *handler) getTokensByOwner(w http.ResponseWriter, r *http.Request) error {
	tokens, err := h.appSvc.GetTokensByOwner(r.Context(), chi.URLParam(r, "owner"))
	if err != nil {
		return err
	}

	resp := TokensResponse{Tokens: make([]TokenResponse, 0, len(tokens))}
	for _, token := range tokens {
		resp.Tokens = append(resp.Tokens, toTokenResponse(token))
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

func toMintRequestResponse(request application.MintRequestInfo) MintRequestResponse {
	payment := ""
	if request.Payment != nil {
		payment = request.Payment.String()
	}
	return MintRequestResponse{
		RequestId:   request.RequestId,
		Requester:   request.Requester,
		Payment:     payment,
		Status:      request.Status.String(),
		TokenId:     request.TokenId,
		CreatedAt:   request.CreatedAt,
		FulfilledAt: request.FulfilledAt,
	}
}

func toTokenResponse(token domain.Token) TokenResponse {
	randomWord := ""
	if token.RandomWord != nil {
		randomWord = token.RandomWord.String()
	}
	return TokenResponse{
		TokenId:           token.TokenId,
		Owner:             token.Owner,
		CategoryId:        uint8(token.Category.Id),
		Category:          token.Category.Name,
		MetadataReference: token.MetadataReference,
		RequestId:         token.RequestId,
		RandomWord:        randomWord,
		MintedAt:          token.MintedAt,
	}
}
