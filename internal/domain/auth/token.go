package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const ScopePayslips = "payslips"

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidAPIKey = errors.New("invalid api key")
	ErrIssuerOff     = errors.New("token issuing is not configured")
)

type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	Subject string
	Scope   string
}

func GenerateToken(secret, subject, scope string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func HashAPIKey(key string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Issuer exchanges a shared API key for a short-lived bearer token.
type Issuer struct {
	Secret  string
	KeyHash string
	TTL     time.Duration
}

func (i Issuer) Enabled() bool {
	return i.Secret != "" && i.KeyHash != ""
}

func (i Issuer) Exchange(subject, key string) (string, time.Time, error) {
	if !i.Enabled() {
		return "", time.Time{}, ErrIssuerOff
	}
	if strings.TrimSpace(key) == "" {
		return "", time.Time{}, ErrInvalidAPIKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(i.KeyHash), []byte(key)); err != nil {
		return "", time.Time{}, ErrInvalidAPIKey
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "api-key"
	}
	ttl := i.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	token, err := GenerateToken(i.Secret, subject, ScopePayslips, ttl)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, time.Now().Add(ttl), nil
}
