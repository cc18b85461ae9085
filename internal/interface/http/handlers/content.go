package handlers

import (
	"net/http"

	"github.com/clubnft/clubd/pkg/errors"
	"github.com/go-chi/chi/v5"
)

var errNoContentStore = errors.NOT_SUPPORTED.New("no content store configured")

// getContent serves the blobs of the content store, mostly for the metadata
// records assembled into the local store.
func (h *handler) getContent(w http.ResponseWriter, r *http.Request) error {
	if h.contentStore == nil {
		return errNoContentStore
	}

	cid := chi.URLParam(r, "cid")
	data, err := h.contentStore.Get(r.Context(), "ipfs://"+cid)
	if err != nil {
		return errors.CONTENT_NOT_FOUND.Wrap(err).WithMetadata(map[string]any{"cid": cid})
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	return nil
}
