package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/clubnft/clubd/pkg/errors"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	log "github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code     uint16            `json:"code"`
	Name     string            `json:"name"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// HandlerFunc is an http handler that can fail.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ErrorConverter writes the error returned by h, if any, as an ErrorResponse
// with the http status matching its code.
func ErrorConverter(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			WriteError(w, err)
		}
	}
}

func WriteError(w http.ResponseWriter, err error) {
	var structuredErr apperrors.Error
	if !errors.As(err, &structuredErr) {
		structuredErr = apperrors.INTERNAL_ERROR.Wrap(err)
	}
	if structuredErr.Code() == apperrors.INTERNAL_ERROR.Code {
		structuredErr.Log().Error(structuredErr.Error())
	}

	status := runtime.HTTPStatusFromCode(structuredErr.GrpcCode())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Code:     structuredErr.Code(),
		Name:     structuredErr.CodeName(),
		Message:  structuredErr.Error(),
		Metadata: structuredErr.Metadata(),
	}); err != nil {
		log.WithError(err).Warn("failed to write error response")
	}
}
