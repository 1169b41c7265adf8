package auth

import "time"

const (
	defaultSigningMethod   = "HS256"
	defaultContextKey      = "user"
	defaultTokenLookup     = "header:Authorization"
	defaultAuthScheme      = "Bearer"
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// SimpleConfig is a plain-struct Config. Zero values fall back to
// defaults, so hosts only set what they need.
type SimpleConfig struct {
	SigningKey       string
	SigningMethod    string
	ContextKey       string
	Issuer           string
	Audience         []string
	TokenLookup      string
	AuthScheme       string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	WarningInterval  time.Duration
	WarningCountdown time.Duration
	SessionTimeout   time.Duration
	RequestTimeout   time.Duration
}

func (c *SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c *SimpleConfig) GetSigningMethod() string {
	if c.SigningMethod == "" {
		return defaultSigningMethod
	}
	return c.SigningMethod
}

func (c *SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return defaultContextKey
	}
	return c.ContextKey
}

func (c *SimpleConfig) GetIssuer() string { return c.Issuer }

func (c *SimpleConfig) GetAudience() []string { return c.Audience }

func (c *SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return defaultTokenLookup
	}
	return c.TokenLookup
}

func (c *SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return defaultAuthScheme
	}
	return c.AuthScheme
}

func (c *SimpleConfig) GetAccessTokenTTL() time.Duration {
	if c.AccessTokenTTL <= 0 {
		return defaultAccessTokenTTL
	}
	return c.AccessTokenTTL
}

func (c *SimpleConfig) GetRefreshTokenTTL() time.Duration {
	if c.RefreshTokenTTL <= 0 {
		return defaultRefreshTokenTTL
	}
	return c.RefreshTokenTTL
}

func (c *SimpleConfig) GetWarningInterval() time.Duration {
	if c.WarningInterval <= 0 {
		return defaultWarningInterval
	}
	return c.WarningInterval
}

func (c *SimpleConfig) GetWarningCountdown() time.Duration {
	if c.WarningCountdown <= 0 {
		return defaultWarningCountdown
	}
	return c.WarningCountdown
}

func (c *SimpleConfig) GetSessionTimeout() time.Duration {
	if c.SessionTimeout <= 0 {
		return defaultSessionTimeout
	}
	return c.SessionTimeout
}

func (c *SimpleConfig) GetRequestTimeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return defaultRequestTimeout
	}
	return c.RequestTimeout
}

var _ Config = (*SimpleConfig)(nil)
