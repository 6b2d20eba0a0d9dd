package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/moneyflow/internal/http/render"
	"github.com/MrJamesThe3rd/moneyflow/internal/identity"
)

const (
	IdempotencyHeader = "Idempotency-Key"

	// inFlightTTL bounds how long a crashed request can keep its key locked.
	inFlightTTL    = 60 * time.Second
	maxKeyLen      = 255
	storeOpTimeout = 2 * time.Second
)

type idempotencyEntry struct {
	InProgress  bool   `json:"inProgress"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body,omitempty"`
	BodySHA256  string `json:"bodySha256"`
}

// responseRecorder tees the response so it can be stored for replay.
type responseRecorder struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}

	r.buf.Write(b)

	return r.ResponseWriter.Write(b)
}

// Idempotency deduplicates POST requests that carry an Idempotency-Key header. The first
// completed response is kept for ttl and replayed to repeats with the same body. A repeat
// with a different body, or one arriving while the first is still running, gets a 409.
// Server errors are not kept, so the client can retry them.
func Idempotency(rdb *redis.Client, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idemKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if r.Method != http.MethodPost || idemKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			if len(idemKey) > maxKeyLen {
				render.Message(w, http.StatusBadRequest, "Idempotency-Key is too long")
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				render.Message(w, http.StatusBadRequest, "could not read request body")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))

			sum := sha256.Sum256(body)
			bodyHash := hex.EncodeToString(sum[:])
			key := idempotencyKey(r, idemKey)

			ctx, cancel := context.WithTimeout(r.Context(), storeOpTimeout)
			defer cancel()

			acquired, err := lock(ctx, rdb, key, bodyHash)
			if err != nil {
				slog.ErrorContext(r.Context(), "idempotency store unavailable", "error", err)
				render.Message(w, http.StatusServiceUnavailable, "idempotency store unavailable")

				return
			}

			if !acquired {
				replay(w, r, rdb, key, bodyHash)
				return
			}

			rec := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			// Use a fresh context: the request one may already be cancelled.
			saveCtx, saveCancel := context.WithTimeout(context.Background(), storeOpTimeout)
			defer saveCancel()

			if rec.status >= http.StatusInternalServerError || rec.status == 0 {
				if err := rdb.Del(saveCtx, key).Err(); err != nil {
					slog.WarnContext(r.Context(), "failed to release idempotency key", "key", key, "error", err)
				}

				return
			}

			entry := idempotencyEntry{
				Status:      rec.status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.buf.Bytes(),
				BodySHA256:  bodyHash,
			}
			if err := save(saveCtx, rdb, key, entry, ttl); err != nil {
				slog.WarnContext(r.Context(), "failed to store idempotent response", "key", key, "error", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, rdb *redis.Client, key, bodyHash string) {
	ctx, cancel := context.WithTimeout(r.Context(), storeOpTimeout)
	defer cancel()

	cur, err := load(ctx, rdb, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Released between our lock attempt and the read.
			render.Message(w, http.StatusConflict, "request with this Idempotency-Key is already in progress")
			return
		}

		slog.ErrorContext(r.Context(), "idempotency store unavailable", "error", err)
		render.Message(w, http.StatusServiceUnavailable, "idempotency store unavailable")

		return
	}

	if cur.BodySHA256 != bodyHash {
		render.Message(w, http.StatusConflict, "Idempotency-Key reused with a different request body")
		return
	}

	if cur.InProgress {
		render.Message(w, http.StatusConflict, "request with this Idempotency-Key is already in progress")
		return
	}

	if cur.ContentType != "" {
		w.Header().Set("Content-Type", cur.ContentType)
	}

	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cur.Status)

	if _, err := w.Write(cur.Body); err != nil {
		slog.ErrorContext(r.Context(), "failed to write replayed response", "error", err)
	}
}

// idempotencyKey scopes the client key to the caller and the endpoint.
func idempotencyKey(r *http.Request, idemKey string) string {
	user := "anonymous"
	if id, ok := identity.UserID(r.Context()); ok {
		user = id.String()
	}

	return "idempotency:" + user + ":" + strings.ToLower(r.Method) + ":" + r.URL.Path + ":" + idemKey
}

func lock(ctx context.Context, rdb *redis.Client, key, bodyHash string) (bool, error) {
	payload, err := json.Marshal(idempotencyEntry{InProgress: true, BodySHA256: bodyHash})
	if err != nil {
		return false, err
	}

	return rdb.SetNX(ctx, key, payload, inFlightTTL).Result()
}

func load(ctx context.Context, rdb *redis.Client, key string) (idempotencyEntry, error) {
	var e idempotencyEntry

	v, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}

	if err := json.Unmarshal(v, &e); err != nil {
		return e, err
	}

	return e, nil
}

func save(ctx context.Context, rdb *redis.Client, key string, entry idempotencyEntry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return rdb.Set(ctx, key, payload, ttl).Err()
}
