// Package auth builds the bearer-token verifier used by the document API.
package auth

import (
	"context"

	"github.com/jakestrouse00/mongodriver/internal/config"
	"github.com/jakestrouse00/mongodriver/pkg/logger"
	"github.com/jakestrouse00/mongodriver/pkg/middleware"
)

// FromConfig returns nil when auth is disabled. OIDC is preferred when both
// an issuer and a shared secret are configured.
func FromConfig(ctx context.Context, cfg config.AuthConfig) (middleware.Verifier, error) {
	switch {
	case cfg.OIDCIssuer != "":
		v, err := NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			return nil, err
		}
		logger.Infof("auth: verifying OIDC tokens from %s", cfg.OIDCIssuer)
		return v, nil
	case cfg.JWTSecret != "":
		v, err := NewHMACVerifier(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		logger.Infof("auth: verifying HS256 tokens")
		return v, nil
	default:
		return nil, nil
	}
}
