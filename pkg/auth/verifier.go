// Package auth verifies the bearer tokens that guard the catalog write routes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/loja/cadastroprodutos/pkg/config"
)

// ErrInsufficientScope is returned for a valid token that does not grant the catalog write scope.
var ErrInsufficientScope = errors.New("token does not grant the catalog write scope")

type Verifier interface {
	Verify(ctx context.Context, tokenString string) (jwt.Token, error)
}

// JWTVerifier accepts tokens signed by the IdP, issued to the catalog client and granting writeScope.
type JWTVerifier struct {
	keys       *keyCache
	issuer     string
	clientID   string
	writeScope string
}

// NewJWTVerifier creates a JWTVerifier and fetches the key set once so a bad IdP config fails at startup.
func NewJWTVerifier(ctx context.Context, cfg config.AuthConfig) (*JWTVerifier, error) {
	v := &JWTVerifier{
		keys:       newKeyCache(cfg.IdP.JwksURL, cfg.IdP.MinInterval),
		issuer:     cfg.IdP.Issuer,
		clientID:   cfg.IdP.ClientID,
		writeScope: cfg.WriteScope,
	}
	if _, err := v.keys.get(ctx); err != nil {
		return nil, fmt.Errorf("initial JWKS fetch failed: %w", err)
	}
	return v, nil
}

// Verify checks the signature, time claims, issuer and authorized party of tokenString,
// then requires the write scope. A token that only lacks the scope fails with ErrInsufficientScope.
func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (jwt.Token, error) {
	set, err := v.keys.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get keyset for verification: %w", err)
	}

	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithClaimValue("azp", v.clientID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	if !grants(token, v.writeScope) {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientScope, v.writeScope)
	}
	return token, nil
}

// grants reports whether scope appears in the space separated "scope" claim
// or among the realm roles of the token.
func grants(token jwt.Token, scope string) bool {
	var scopes string
	if err := token.Get("scope", &scopes); err == nil && slices.Contains(strings.Fields(scopes), scope) {
		return true
	}

	var realm map[string]any
	if err := token.Get("realm_access", &realm); err != nil {
		return false
	}
	roles, _ := realm["roles"].([]any)
	for _, role := range roles {
		if r, ok := role.(string); ok && r == scope {
			return true
		}
	}
	return false
}
