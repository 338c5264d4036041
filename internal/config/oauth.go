package config

import (
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
)

// OAuthProviders returns the identity providers with credentials set.
// Callbacks live under BaseURL/api/auth/<provider>/callback.
func (c *Config) OAuthProviders() []goth.Provider {
	var providers []goth.Provider
	if c.GoogleClientID != "" && c.GoogleClientSecret != "" {
		providers = append(providers, google.New(
			c.GoogleClientID,
			c.GoogleClientSecret,
			c.BaseURL+"/api/auth/google/callback",
			"email", "profile",
		))
	}
	if c.FacebookClientID != "" && c.FacebookClientSecret != "" {
		providers = append(providers, facebook.New(
			c.FacebookClientID,
			c.FacebookClientSecret,
			c.BaseURL+"/api/auth/facebook/callback",
			"email",
		))
	}
	return providers
}
