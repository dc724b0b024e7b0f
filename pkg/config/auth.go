package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthConfig guards the mutating product routes with bearer tokens issued by an IdP.
// WriteScope must appear in the token scope claim or realm roles.
type AuthConfig struct {
	Enabled    bool   `koanf:"enabled"`
	WriteScope string `koanf:"writescope"`
	IdP        IdP    `koanf:"idp"`
}

type IdP struct {
	JwksURL     string        `koanf:"jwksurl"`
	Issuer      string        `koanf:"issuer"`
	ClientID    string        `koanf:"clientid"`
	MinInterval time.Duration `koanf:"mininterval"`
}

// String returns a string representation of the auth configuration.
func (c *AuthConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Auth ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.Enabled))
	b.WriteString(fmt.Sprintf("  writescope: %s\n", c.WriteScope))
	b.WriteString(fmt.Sprintf("  idp.jwksurl: %s\n", c.IdP.JwksURL))
	b.WriteString(fmt.Sprintf("  idp.issuer: %s\n", c.IdP.Issuer))
	b.WriteString(fmt.Sprintf("  idp.clientid: %s\n", c.IdP.ClientID))
	b.WriteString(fmt.Sprintf("  idp.mininterval: %s\n", c.IdP.MinInterval))
	return b.String()
}

func (c *AuthConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.WriteScope) == "" || strings.ContainsAny(c.WriteScope, " \t") {
		return fmt.Errorf("auth write scope must be a single non-empty scope")
	}
	if c.IdP.JwksURL == "" {
		return fmt.Errorf("IdP JWKS URL cannot be empty")
	}
	if c.IdP.Issuer == "" {
		return fmt.Errorf("IdP issuer cannot be empty")
	}
	if c.IdP.ClientID == "" {
		return fmt.Errorf("IdP client ID cannot be empty")
	}
	if c.IdP.MinInterval <= 0 {
		return fmt.Errorf("IdP minimum interval must be greater than zero")
	}
	return nil
}
