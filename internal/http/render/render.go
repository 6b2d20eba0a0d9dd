// Package render writes JSON responses and turns domain errors into HTTP status codes.
package render

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/moneyflow/internal/category"
	"github.com/MrJamesThe3rd/moneyflow/internal/identity"
	"github.com/MrJamesThe3rd/moneyflow/internal/loan"
	"github.com/MrJamesThe3rd/moneyflow/internal/transaction"
)

type messageResponse struct {
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, messageResponse{Message: msg})
}

// Error writes the response for err. Unclassified errors are logged and hidden behind a
// generic 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		JSON(w, http.StatusBadRequest, messageResponse{Message: reqErr.Message, Details: reqErr.Details})
		return
	}

	switch {
	case errors.Is(err, loan.ErrInvalid), errors.Is(err, category.ErrInvalid), errors.Is(err, transaction.ErrInvalid):
		Message(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, loan.ErrNotFound), errors.Is(err, category.ErrNotFound), errors.Is(err, transaction.ErrNotFound):
		Message(w, http.StatusNotFound, notFoundMessage(err))
	case errors.Is(err, category.ErrReadOnly):
		Message(w, http.StatusForbidden, category.ErrReadOnly.Error())
	case errors.Is(err, loan.ErrConflict):
		Message(w, http.StatusConflict, "loan was modified concurrently, please retry")
	case errors.Is(err, identity.ErrInvalidToken):
		Message(w, http.StatusUnauthorized, "invalid or expired token")
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		Message(w, http.StatusInternalServerError, "internal error")
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, loan.ErrNotFound):
		return loan.ErrNotFound.Error()
	case errors.Is(err, category.ErrNotFound):
		return category.ErrNotFound.Error()
	default:
		return transaction.ErrNotFound.Error()
	}
}
