package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payslipgen/internal/platform/metrics"
)

const (
	testIdemKey  = "idem:anon:/api/payslips:k1"
	testIdemLock = testIdemKey + ":lock"
	testBody     = `{"employeeName":"Asha"}`
)

func createdHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"p-1"}}`))
	})
}

func idemRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/payslips", bytes.NewBufferString(body))
	req.Header.Set("Idempotency-Key", "k1")
	return req
}

func TestRequestHashDeterministic(t *testing.T) {
	assert.Equal(t, RequestHash([]byte("payload")), RequestHash([]byte("payload")))
	assert.NotEqual(t, RequestHash([]byte("payload")), RequestHash([]byte("other")))
}

func TestIdempotencyFirstRequestStoresResponse(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewIdempotencyStore(rdb, time.Hour)

	mock.ExpectGet(testIdemKey).RedisNil()
	mock.ExpectSetNX(testIdemLock, "1", idempotencyLock).SetVal(true)
	mock.ExpectGet(testIdemKey).RedisNil()
	mock.Regexp().ExpectSet(testIdemKey, `.*`, time.Hour).SetVal("OK")
	mock.ExpectDel(testIdemLock).SetVal(1)

	calls := 0
	rec := httptest.NewRecorder()
	Idempotency(store, metrics.New(), nil)(createdHandler(&calls)).ServeHTTP(rec, idemRequest(testBody))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewIdempotencyStore(rdb, time.Hour)
	collector := metrics.New()

	stored, err := json.Marshal(StoredResponse{
		RequestHash: RequestHash([]byte(testBody)),
		Status:      http.StatusCreated,
		Body:        json.RawMessage(`{"success":true,"data":{"id":"p-1"}}`),
	})
	require.NoError(t, err)
	mock.ExpectGet(testIdemKey).SetVal(string(stored))

	calls := 0
	rec := httptest.NewRecorder()
	Idempotency(store, collector, nil)(createdHandler(&calls)).ServeHTTP(rec, idemRequest(testBody))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, `{"success":true,"data":{"id":"p-1"}}`, rec.Body.String())
	assert.Zero(t, calls)
	assert.EqualValues(t, 1, collector.Snapshot()["idempotentReplaysTotal"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRejectsDifferentPayload(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewIdempotencyStore(rdb, time.Hour)

	stored, err := json.Marshal(StoredResponse{RequestHash: RequestHash([]byte("other")), Status: 201, Body: json.RawMessage(`{}`)})
	require.NoError(t, err)
	mock.ExpectGet(testIdemKey).SetVal(string(stored))

	calls := 0
	rec := httptest.NewRecorder()
	Idempotency(store, nil, nil)(createdHandler(&calls)).ServeHTTP(rec, idemRequest(testBody))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, calls)
}

func TestIdempotencyInFlightDuplicate(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewIdempotencyStore(rdb, time.Hour)

	mock.ExpectGet(testIdemKey).RedisNil()
	mock.ExpectSetNX(testIdemLock, "1", idempotencyLock).SetVal(false)

	calls := 0
	rec := httptest.NewRecorder()
	Idempotency(store, nil, nil)(createdHandler(&calls)).ServeHTTP(rec, idemRequest(testBody))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"idempotency_in_progress"`)
	assert.Zero(t, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyReplaysResponseSavedBeforeLock(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewIdempotencyStore(rdb, time.Hour)

	stored, err := json.Marshal(StoredResponse{
		RequestHash: RequestHash([]byte(testBody)),
		Status:      http.StatusCreated,
		Body:        json.RawMessage(`{"success":true,"data":{"id":"p-1"}}`),
	})
	require.NoError(t, err)
	mock.ExpectGet(testIdemKey).RedisNil()
	mock.ExpectSetNX(testIdemLock, "1", idempotencyLock).SetVal(true)
	mock.ExpectGet(testIdemKey).SetVal(string(stored))
	mock.ExpectDel(testIdemLock).SetVal(1)

	calls := 0
	rec := httptest.NewRecorder()
	Idempotency(store, nil, nil)(createdHandler(&calls)).ServeHTTP(rec, idemRequest(testBody))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
	assert.Zero(t, calls, "handler must not run a second time")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyConflictSavedBeforeLock(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewIdempotencyStore(rdb, time.Hour)

	stored, err := json.Marshal(StoredResponse{RequestHash: RequestHash([]byte("other")), Status: 201, Body: json.RawMessage(`{}`)})
	require.NoError(t, err)
	mock.ExpectGet(testIdemKey).RedisNil()
	mock.ExpectSetNX(testIdemLock, "1", idempotencyLock).SetVal(true)
	mock.ExpectGet(testIdemKey).SetVal(string(stored))
	mock.ExpectDel(testIdemLock).SetVal(1)

	calls := 0
	rec := httptest.NewRecorder()
	Idempotency(store, nil, nil)(createdHandler(&calls)).ServeHTTP(rec, idemRequest(testBody))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyPassThrough(t *testing.T) {
	calls := 0
	handler := Idempotency(NewIdempotencyStore(nil, 0), nil, nil)(createdHandler(&calls))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, idemRequest(testBody))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rdb, _ := redismock.NewClientMock()
	handler = Idempotency(NewIdempotencyStore(rdb, 0), nil, nil)(createdHandler(&calls))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payslips", bytes.NewBufferString(testBody)))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, calls)
}
