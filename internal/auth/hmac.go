package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jakestrouse00/mongodriver/pkg/middleware"
)

var (
	ErrEmptySecret = errors.New("auth: empty signing secret")
	ErrNoExpiry    = errors.New("auth: token has no exp claim")
)

// HMACVerifier accepts HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &HMACVerifier{secret: []byte(secret)}, nil
}

func (v *HMACVerifier) Verify(_ context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if _, ok := claims["exp"]; !ok {
		return nil, ErrNoExpiry
	}
	return mapToken(claims), nil
}

// GenerateToken signs an HS256 token for subject valid for ttl. It backs the
// mint-token command used to call a service configured with AUTH_JWT_SECRET.
func GenerateToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type mapToken jwt.MapClaims

// Claims decodes the token claims into v the way *oidc.IDToken does.
func (t mapToken) Claims(v interface{}) error {
	b, err := json.Marshal(map[string]interface{}(t))
	if err != nil {
		return fmt.Errorf("claims: %w", err)
	}
	return json.Unmarshal(b, v)
}
