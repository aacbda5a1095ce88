// Package auth verifies identity provider ID tokens and carries the
// authenticated user through the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/JaimeStill/verdant/pkg/handlers"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

type contextKey struct{}

// WithUserID returns a copy of ctx carrying id.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// UserID returns the authenticated subject, or nil for anonymous requests.
func UserID(ctx context.Context) *string {
	if id, ok := ctx.Value(contextKey{}).(string); ok && id != "" {
		return &id
	}
	return nil
}

// Authenticator checks bearer ID tokens against the configured issuer.
// A nil verifier means verification is disabled.
type Authenticator struct {
	verifier *oidc.IDTokenVerifier
	logger   *slog.Logger
}

// New builds an Authenticator from cfg. Disabled configs return an
// Authenticator that treats every request as anonymous.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (*Authenticator, error) {
	logger = logger.With("system", "auth")
	if !cfg.Enabled {
		logger.Warn("token verification disabled, requests are anonymous")
		return &Authenticator{logger: logger}, nil
	}

	oc := &oidc.Config{ClientID: cfg.ClientID}

	if cfg.JWKSURL != "" {
		keys := oidc.NewRemoteKeySet(ctx, cfg.JWKSURL)
		return NewWithVerifier(oidc.NewVerifier(cfg.IssuerURL, keys, oc), logger), nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover issuer %s: %w", cfg.IssuerURL, err)
	}
	return NewWithVerifier(provider.Verifier(oc), logger), nil
}

// NewWithVerifier wraps an existing verifier.
func NewWithVerifier(v *oidc.IDTokenVerifier, logger *slog.Logger) *Authenticator {
	return &Authenticator{verifier: v, logger: logger}
}

// Enabled reports whether tokens are verified.
func (a *Authenticator) Enabled() bool {
	return a.verifier != nil
}

// Verify checks raw and returns its subject.
func (a *Authenticator) Verify(ctx context.Context, raw string) (string, error) {
	token, err := a.verifier.Verify(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if token.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return token.Subject, nil
}

// Middleware rejects requests without a valid bearer token with 401 and
// stores the token subject for UserID. It is a pass-through when disabled.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !a.Enabled() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := bearer(r)
			if !ok {
				handlers.RespondError(w, a.logger, http.StatusUnauthorized, ErrMissingToken)
				return
			}

			subject, err := a.Verify(r.Context(), raw)
			if err != nil {
				handlers.RespondError(w, a.logger, http.StatusUnauthorized, ErrInvalidToken)
				a.logger.Debug("token rejected", "error", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), subject)))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
