package middleware

import (
	"context"
	"net/http"
	"strings"

	"payslipgen/internal/domain/auth"
	"payslipgen/internal/requestctx"
	"payslipgen/internal/transport/http/api"
)

// Auth attaches the bearer token's principal when one is present and valid.
// It never rejects; RequireAuth does.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := requestctx.WithPrincipal(r.Context(), auth.Principal{
				Subject: claims.Subject,
				Scope:   claims.Scope,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without a principal. With enabled false the
// API is open, which is how local development runs without JWT_SECRET.
func RequireAuth(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			principal, ok := GetPrincipal(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token", GetRequestID(r.Context()))
				return
			}
			if principal.Scope != auth.ScopePayslips {
				api.Fail(w, http.StatusForbidden, "forbidden", "token scope does not allow this action", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetPrincipal(ctx context.Context) (auth.Principal, bool) {
	return requestctx.GetPrincipal(ctx)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
