package recordclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payslipgen/internal/domain/payslip"
)

func TestCreateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/payslips", r.URL.Path)
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))

		var rec payslip.Record
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": payslip.Payslip{
				ID:              "p-1",
				Record:          rec,
				TotalNetPayable: payslip.NewAmount(55000),
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL+"/", "tkn", time.Second)
	created, err := client.Create(context.Background(), payslip.Record{EmployeeName: "Asha"})
	require.NoError(t, err)
	assert.Equal(t, "p-1", created.ID)
	assert.Equal(t, "Asha", created.EmployeeName)
	assert.Equal(t, "55000", created.TotalNetPayable.String())
}

func TestCreateServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"payslip_create_failed","message":"failed to save payslip"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Create(context.Background(), payslip.Record{})
	var failure *Error
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, http.StatusInternalServerError, failure.Status)
	assert.Equal(t, "payslip_create_failed", failure.Code)
	assert.Equal(t, "failed to save and generate payslip: failed to save payslip", err.Error())
}

func TestCreateNonJSONFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Create(context.Background(), payslip.Record{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save and generate payslip: ")
}

func TestCreateTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, "", time.Second).Create(context.Background(), payslip.Record{})
	var failure *Error
	require.True(t, errors.As(err, &failure))
	assert.Zero(t, failure.Status)
	assert.Contains(t, err.Error(), "failed to save and generate payslip: ")
}
