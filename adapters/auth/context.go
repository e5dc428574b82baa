// Package auth builds the per-request auth context map from an
// optional bearer credential.
//
// Trust boundary: the credential is exchanged with the identity
// provider for a workspace-scoped token, and the workspace claim is
// read from that token WITHOUT verifying its signature. The exchange
// step itself is what is trusted, not the token signature. Do not add
// verification here without revisiting that contract.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/artpar/stacgate/ports"
)

// Header keys injected into every handler invocation.
const (
	HeaderWorkspaces = "X-Workspaces"
	HeaderAuthorized = "X-Authorized"
)

// Authorization states.
const (
	StateAuthorized   = "authorized"
	StateUnauthorized = "unauthorized"
)

// workspaceScope is the scope requested during token exchange.
const workspaceScope = "workspaces"

// ContextBuilder produces the auth context for one request. A missing
// credential yields an unauthorized context, never a rejection; a
// failed exchange propagates and fails the request.
type ContextBuilder struct {
	exchanger ports.TokenExchanger
	log       zerolog.Logger
}

// NewContextBuilder creates a builder backed by the given exchanger.
func NewContextBuilder(exchanger ports.TokenExchanger, logger zerolog.Logger) *ContextBuilder {
	return &ContextBuilder{exchanger: exchanger, log: logger}
}

// Build returns the auth context map for an optional bearer credential.
func (b *ContextBuilder) Build(ctx context.Context, bearer string) (map[string]any, error) {
	if bearer == "" {
		b.log.Debug().Msg("no credential presented")
		return map[string]any{
			HeaderWorkspaces: []string{},
			HeaderAuthorized: StateUnauthorized,
		}, nil
	}

	exchanged, err := b.exchanger.Exchange(ctx, bearer, workspaceScope)
	if err != nil {
		return nil, fmt.Errorf("exchange token: %w", err)
	}

	workspaces, err := workspaceClaim(exchanged)
	if err != nil {
		return nil, fmt.Errorf("decode exchanged token: %w", err)
	}

	b.log.Debug().Strs("workspaces", workspaces).Msg("credential exchanged")
	return map[string]any{
		HeaderWorkspaces: workspaces,
		HeaderAuthorized: StateAuthorized,
	}, nil
}

// workspaceClaim extracts the workspace membership claim. Unverified
// by design; see the package comment.
func workspaceClaim(token string) ([]string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}

	raw, ok := claims["workspaces"].([]any)
	if !ok {
		return []string{}, nil
	}
	workspaces := make([]string, 0, len(raw))
	for _, w := range raw {
		if s, ok := w.(string); ok {
			workspaces = append(workspaces, s)
		}
	}
	return workspaces, nil
}
