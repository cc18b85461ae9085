package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/clubnft/clubd/internal/core/application"
	"github.com/clubnft/clubd/internal/core/ports"
	"github.com/clubnft/clubd/internal/interface/http/middleware"
	"github.com/clubnft/clubd/pkg/errors"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
)

const maxBodySize = 1 << 20

type handler struct {
	appSvc       application.Service
	fulfiller    ports.ManualFulfiller
	contentStore ports.ContentStore
}

// NewHandler returns the router of the REST api. fulfiller and contentStore
// are optional, the related routes answer NOT_SUPPORTED without them.
func NewHandler(
	appSvc application.Service, fulfiller ports.ManualFulfiller,
	contentStore ports.ContentStore, allowedOrigins []string,
) http.Handler {
	h := &handler{appSvc, fulfiller, contentStore}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.PanicRecovery)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", h.health)
	r.Get("/ipfs/{cid}", middleware.ErrorConverter(h.getContent))

	r.Route("/v1", func(api chi.Router) {
		api.Get("/info", middleware.ErrorConverter(h.getInfo))
		api.Get("/fee", middleware.ErrorConverter(h.getMintFee))
		api.Get("/counter", middleware.ErrorConverter(h.getTokenCounter))
		api.Get("/initialized", middleware.ErrorConverter(h.isInitialized))
		api.Get("/metadata/{index}", middleware.ErrorConverter(h.getMetadataReference))

		api.Post("/mint", middleware.ErrorConverter(h.requestMint))
		api.Get("/requests/{requestId}", middleware.ErrorConverter(h.getMintRequest))
		api.Get("/requesters/{requester}/requests", middleware.ErrorConverter(h.getMintRequests))

		api.Get("/tokens/{tokenId}", middleware.ErrorConverter(h.getToken))
		api.Get("/tokens/{tokenId}/category", middleware.ErrorConverter(h.getCategory))
		api.Get("/tokens/{tokenId}/uri", middleware.ErrorConverter(h.getTokenUri))
		api.Get("/owners/{owner}/tokens", middleware.ErrorConverter(h.getTokensByOwner))

		api.Post("/oracle/fulfill", middleware.ErrorConverter(h.fulfill))
		api.Get("/oracle/requests", middleware.ErrorConverter(h.getPendingRequests))
		api.Post(
			"/oracle/requests/{requestId}/fulfill", middleware.ErrorConverter(h.triggerFulfillment),
		)
	})

	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, body any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(body); err != nil {
		return errors.INVALID_ARGUMENT.New("invalid request body: %s", err)
	}
	return nil
}

func parseUint(name, value string) (uint64, error) {
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.INVALID_ARGUMENT.New("invalid %s %s", name, value).
			WithMetadata(map[string]any{name: value})
	}
	return n, nil
}
