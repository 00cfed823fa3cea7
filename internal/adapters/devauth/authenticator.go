// Package devauth provides a development-mode authenticator that accepts
// any non-empty credentials and returns fixed claims from configuration.
// It exists so the service can run without the external user store.
package devauth

import (
	"context"

	"github.com/Egem97/ttl-apg/config"
	domainauth "github.com/Egem97/ttl-apg/internal/domain/auth"
	"github.com/Egem97/ttl-apg/internal/ports"
)

// Authenticator returns the configured claims for every login attempt
// with non-empty credentials. Never use outside development.
type Authenticator struct {
	claims domainauth.UserClaims
}

// NewAuthenticator builds an Authenticator from dev-auth config.
func NewAuthenticator(cfg config.DevAuthConfig) *Authenticator {
	return &Authenticator{
		claims: domainauth.UserClaims{
			UserID:      cfg.UserID,
			Username:    cfg.Username,
			Email:       cfg.Email,
			CompanyID:   cfg.CompanyID,
			CompanyName: cfg.CompanyName,
			Role:        domainauth.ParseRole(cfg.Role),
			IsAdmin:     cfg.IsAdmin,
			FullName:    cfg.FullName,
		},
	}
}

var _ ports.UserAuthenticator = (*Authenticator)(nil)

// Authenticate returns the fixed claims. Empty credentials are still
// rejected so login handler validation paths stay testable.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (domainauth.UserClaims, error) {
	if username == "" || password == "" {
		return domainauth.UserClaims{}, ports.ErrInvalidCredentials
	}
	claims := a.claims
	if claims.Username == "" {
		claims.Username = username
	}
	return claims, nil
}
