package httppresentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/apperr"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability/logctx"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Kind      string `json:"kind"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
	ProductID string `json:"productId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// statusOf is the single mapping from error kind to HTTP status. Handlers
// that need a different status for one kind use writeDomainErrorStatus.
func statusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindOutOfStock, apperr.KindInvalidTransition, apperr.KindInsufficientStock:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case kindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	writeDomainErrorStatus(w, r, statusOf(err), err)
}

func writeDomainErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	body := &errorBody{Kind: "Internal", Message: "internal error"}
	if e, ok := apperr.As(err); ok {
		body = &errorBody{Kind: string(e.Kind), Code: e.Code, Message: e.Message, ProductID: e.ProductID}
		if body.Message == "" {
			body.Message = string(e.Kind)
		}
	}

	logger := logctx.FromOr(r.Context(), observability.NopLogger())
	if status >= http.StatusInternalServerError {
		logger.Error("http_request_failed", observability.F("status", status), observability.Err(err))
	} else {
		logger.Debug("http_request_rejected", observability.F("status", status), observability.Err(err))
	}
	writeJSON(w, status, envelope{Success: false, Error: body})
}

// decodeJSON reads a single JSON object, rejecting unknown fields, trailing
// data and bodies above maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperr.Validation(fmt.Sprintf("request body exceeds %d bytes", maxBodyBytes))
		case errors.Is(err, io.EOF):
			return apperr.Validation("request body is required")
		default:
			return apperr.Validation("invalid request body: " + err.Error())
		}
	}
	if dec.More() {
		return apperr.Validation("request body must contain a single JSON object")
	}
	return nil
}
