package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/moneyflow/internal/http/middleware"
)

type staticVerifier map[string]uuid.UUID

func (v staticVerifier) Verify(token string) (uuid.UUID, error) {
	id, ok := v[token]
	if !ok {
		return uuid.Nil, errors.New("unknown token")
	}

	return id, nil
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	verifier := staticVerifier{"good": userID}

	var seen uuid.UUID

	handler := middleware.Authenticate(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.UserID(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "Valid", header: "Bearer good", wantStatus: http.StatusNoContent},
		{name: "LowercaseScheme", header: "bearer good", wantStatus: http.StatusNoContent},
		{name: "Missing", header: "", wantStatus: http.StatusUnauthorized},
		{name: "WrongScheme", header: "Basic good", wantStatus: http.StatusUnauthorized},
		{name: "NoToken", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "UnknownToken", header: "Bearer bad", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = uuid.Nil

			req := httptest.NewRequest(http.MethodGet, "/loans", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusNoContent {
				assert.Equal(t, userID, seen)
			} else {
				assert.Equal(t, uuid.Nil, seen)
				assert.Contains(t, rec.Body.String(), `"message"`)
			}
		})
	}
}
