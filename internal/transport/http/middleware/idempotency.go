package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"payslipgen/internal/platform/metrics"
	"payslipgen/internal/transport/http/api"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	idempotencyLock   = 30 * time.Second
	maxIdempotencyKey = 200
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

// StoredResponse is what a replayed request gets back.
type StoredResponse struct {
	RequestHash string          `json:"requestHash"`
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body"`
}

// IdempotencyStore keeps the first response for each key in Redis. A nil
// store or client turns idempotency off.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func idempotencyKey(scope, key string) string {
	return "idem:" + scope + ":" + key
}

func (s *IdempotencyStore) enabled() bool {
	return s != nil && s.rdb != nil
}

func (s *IdempotencyStore) Check(ctx context.Context, scope, key, requestHash string) (*StoredResponse, bool, error) {
	if !s.enabled() {
		return nil, false, nil
	}
	raw, err := s.rdb.Get(ctx, idempotencyKey(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored StoredResponse
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, false, err
	}
	if stored.RequestHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return &stored, true, nil
}

// Lock claims the key while the first request is in flight.
func (s *IdempotencyStore) Lock(ctx context.Context, scope, key string) (bool, error) {
	if !s.enabled() {
		return true, nil
	}
	return s.rdb.SetNX(ctx, idempotencyKey(scope, key)+":lock", "1", idempotencyLock).Result()
}

func (s *IdempotencyStore) Unlock(ctx context.Context, scope, key string) error {
	if !s.enabled() {
		return nil
	}
	return s.rdb.Del(ctx, idempotencyKey(scope, key)+":lock").Err()
}

func (s *IdempotencyStore) Save(ctx context.Context, scope, key string, response StoredResponse) error {
	if !s.enabled() {
		return nil
	}
	payload, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, idempotencyKey(scope, key), payload, s.ttl).Err()
}

type bufferedResponse struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) WriteHeader(code int) {
	b.status = code
	b.ResponseWriter.WriteHeader(code)
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.body.Write(p)
	return b.ResponseWriter.Write(p)
}

// Idempotency replays the stored response for a repeated POST carrying the
// same Idempotency-Key and body. Requests without the header pass through.
func Idempotency(store *IdempotencyStore, collector *metrics.Collector, log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if key == "" || r.Method != http.MethodPost || !store.enabled() {
				next.ServeHTTP(w, r)
				return
			}
			requestID := GetRequestID(r.Context())
			if len(key) > maxIdempotencyKey {
				api.Fail(w, http.StatusBadRequest, "invalid_idempotency_key", "idempotency key too long", requestID)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_body", "could not read request body", requestID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			scope := idempotencyScope(r)
			hash := RequestHash(body)
			ctx := r.Context()

			stored, found, err := store.Check(ctx, scope, key, hash)
			if answered(w, stored, found, err, collector, log, requestID) {
				return
			}

			locked, err := store.Lock(ctx, scope, key)
			if err != nil {
				log.Error("idempotency lock failed", zap.Error(err), zap.String("requestId", requestID))
				api.Fail(w, http.StatusServiceUnavailable, "idempotency_unavailable", "idempotency store unavailable", requestID)
				return
			}
			if !locked {
				api.Fail(w, http.StatusConflict, "idempotency_in_progress", "a request with this idempotency key is still being processed", requestID)
				return
			}

			// The first request may have saved and unlocked between Check and Lock.
			stored, found, err = store.Check(ctx, scope, key, hash)
			if err != nil || found {
				if unlockErr := store.Unlock(context.WithoutCancel(ctx), scope, key); unlockErr != nil {
					log.Warn("idempotency unlock failed", zap.Error(unlockErr), zap.String("requestId", requestID))
				}
				answered(w, stored, found, err, collector, log, requestID)
				return
			}

			recorder := &bufferedResponse{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			// Detached so a client hang-up does not lose the stored result.
			saveCtx := context.WithoutCancel(ctx)
			responseBody := bytes.TrimSpace(recorder.body.Bytes())
			if recorder.status < http.StatusInternalServerError && json.Valid(responseBody) {
				if err := store.Save(saveCtx, scope, key, StoredResponse{
					RequestHash: hash,
					Status:      recorder.status,
					Body:        responseBody,
				}); err != nil {
					log.Warn("idempotency save failed", zap.Error(err), zap.String("requestId", requestID))
				}
			}
			if err := store.Unlock(saveCtx, scope, key); err != nil {
				log.Warn("idempotency unlock failed", zap.Error(err), zap.String("requestId", requestID))
			}
		})
	}
}

// answered writes the response for a Check result that settles the request:
// a replay, a payload conflict or a store failure.
func answered(w http.ResponseWriter, stored *StoredResponse, found bool, err error, collector *metrics.Collector, log *zap.Logger, requestID string) bool {
	switch {
	case errors.Is(err, ErrIdempotencyConflict):
		api.Fail(w, http.StatusUnprocessableEntity, "idempotency_conflict", err.Error(), requestID)
		return true
	case err != nil:
		log.Error("idempotency lookup failed", zap.Error(err), zap.String("requestId", requestID))
		api.Fail(w, http.StatusServiceUnavailable, "idempotency_unavailable", "idempotency store unavailable", requestID)
		return true
	case found:
		collector.IdempotentReplay()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(stored.Status)
		_, _ = w.Write(stored.Body)
		return true
	}
	return false
}

func idempotencyScope(r *http.Request) string {
	caller := "anon"
	if principal, ok := GetPrincipal(r.Context()); ok && principal.Subject != "" {
		caller = principal.Subject
	}
	return caller + ":" + r.URL.Path
}
