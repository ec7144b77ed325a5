package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payslipgen/internal/domain/auth"
	"payslipgen/internal/transport/http/api"
	"payslipgen/internal/transport/http/middleware"
	"payslipgen/internal/transport/http/shared"
)

type TokenIssuer interface {
	Exchange(subject, key string) (string, time.Time, error)
}

type Handler struct {
	Issuer TokenIssuer
	Log    *zap.Logger
}

func NewHandler(issuer TokenIssuer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Issuer: issuer, Log: log}
}

type tokenRequest struct {
	APIKey  string `json:"apiKey"`
	Subject string `json:"subject"`
}

type tokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/tokens", h.HandleIssueToken)
}

func (h *Handler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("apiKey", payload.APIKey, "api key is required")
	if v.Reject(w, requestID) {
		return
	}

	token, expires, err := h.Issuer.Exchange(payload.Subject, payload.APIKey)
	switch {
	case errors.Is(err, auth.ErrIssuerOff):
		api.Fail(w, http.StatusNotFound, "token_issuing_disabled", "token issuing is not configured", requestID)
		return
	case errors.Is(err, auth.ErrInvalidAPIKey):
		h.Log.Warn("token exchange rejected", zap.String("subject", payload.Subject), zap.String("requestId", requestID))
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid api key", requestID)
		return
	case err != nil:
		h.Log.Error("token exchange failed", zap.Error(err), zap.String("requestId", requestID))
		api.Fail(w, http.StatusInternalServerError, "token_issue_failed", "failed to issue token", requestID)
		return
	}

	api.Created(w, tokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expires}, requestID)
}
