package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// TokenExtractor pulls the raw token string out of a request.
type TokenExtractor func(c *fiber.Ctx) (string, error)

// MiddlewareConfig wires the request guards. Validator and Config are
// required; the rest default.
type MiddlewareConfig struct {
	Validator    TokenValidator
	Config       Config
	Logger       Logger
	ErrorHandler func(c *fiber.Ctx, err error) error
}

func (mc *MiddlewareConfig) defaults() {
	if mc.Logger == nil {
		mc.Logger = defLogger{}
	}
	if mc.ErrorHandler == nil {
		mc.ErrorHandler = defaultGuardErrorHandler
	}
}

// RequireAuthenticated rejects requests without a valid access token with
// 401. Verified claims are stored in locals under the configured context
// key and in the request context.
func RequireAuthenticated(mc MiddlewareConfig) fiber.Handler {
	mc.defaults()
	extract := makeTokenExtractor(mc.Config)

	return func(c *fiber.Ctx) error {
		claims, err := authenticateRequest(c, mc, extract)
		if err != nil {
			return mc.ErrorHandler(c, err)
		}

		storeClaims(c, mc.Config, claims)
		return c.Next()
	}
}

// RequireAdmin is RequireAuthenticated plus a role check. A valid
// non-admin token gets 403, distinct from the 401 authentication failure.
func RequireAdmin(mc MiddlewareConfig) fiber.Handler {
	mc.defaults()
	extract := makeTokenExtractor(mc.Config)

	return func(c *fiber.Ctx) error {
		claims, err := authenticateRequest(c, mc, extract)
		if err != nil {
			return mc.ErrorHandler(c, err)
		}

		if !claims.IsAdmin() {
			mc.Logger.Info("admin guard rejected role=%s path=%s", claims.Role(), c.Path())
			return mc.ErrorHandler(c, ErrNotAuthorized)
		}

		storeClaims(c, mc.Config, claims)
		return c.Next()
	}
}

func authenticateRequest(c *fiber.Ctx, mc MiddlewareConfig, extract TokenExtractor) (AuthClaims, error) {
	token, err := extract(c)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "missing authentication token").
			WithCode(goerrors.CodeUnauthorized)
	}

	claims, err := mc.Validator.Validate(token)
	if err != nil {
		mc.Logger.Debug("token validation failed: %v", err)
		return nil, err
	}

	return claims, nil
}

func storeClaims(c *fiber.Ctx, cfg Config, claims AuthClaims) {
	key := defaultContextKey
	if cfg != nil && cfg.GetContextKey() != "" {
		key = cfg.GetContextKey()
	}
	c.Locals(key, claims)
	c.SetUserContext(WithClaimsContext(c.UserContext(), claims))
}

// makeTokenExtractor builds the extractor described by the token lookup
// string, e.g. "header:Authorization", "query:token", "cookie:jwt".
func makeTokenExtractor(cfg Config) TokenExtractor {
	lookup := defaultTokenLookup
	scheme := defaultAuthScheme
	if cfg != nil {
		if cfg.GetTokenLookup() != "" {
			lookup = cfg.GetTokenLookup()
		}
		scheme = cfg.GetAuthScheme()
	}

	source, name, found := strings.Cut(lookup, ":")
	if !found {
		source, name = "header", fiber.HeaderAuthorization
	}

	switch source {
	case "query":
		return func(c *fiber.Ctx) (string, error) {
			token := c.Query(name)
			if token == "" {
				return "", ErrUnableToFindSession
			}
			return token, nil
		}
	case "cookie":
		return func(c *fiber.Ctx) (string, error) {
			token := c.Cookies(name)
			if token == "" {
				return "", ErrUnableToFindSession
			}
			return token, nil
		}
	default:
		return func(c *fiber.Ctx) (string, error) {
			header := c.Get(name)
			if header == "" {
				return "", ErrUnableToFindSession
			}
			if scheme == "" {
				return header, nil
			}
			token, ok := cutAuthScheme(header, scheme)
			if !ok {
				return "", ErrUnableToDecodeSession
			}
			return token, nil
		}
	}
}

func cutAuthScheme(header, scheme string) (string, bool) {
	prefix := scheme + " "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func defaultGuardErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusUnauthorized

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryAuthz {
		status = fiber.StatusForbidden
	}

	return c.Status(status).JSON(errorBody(err))
}
