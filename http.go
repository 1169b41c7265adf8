package auth

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// LoginRequest is the credentials payload. Role is an optional hint that
// narrows the lookup to one partition.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role,omitempty" form:"role"`
}

// Validate will validate the payload
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 512)),
		validation.Field(&r.Role, validation.In("", string(RoleUser), string(RoleAdmin))),
	)
}

// LoginResponse carries the principal and both tokens.
type LoginResponse struct {
	Principal *SessionObject `json:"principal"`
	TokenPair
}

// VerifyResponse reports whether a presented token is valid. Reason is a
// text code, only set on failure.
type VerifyResponse struct {
	Valid  bool           `json:"valid"`
	Claims *SessionObject `json:"claims,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty" form:"refresh_token"`
}

type AuthControllerRoutes struct {
	Login    string
	Verify   string
	Refresh  string
	Logout   string
	Register string
}

// AuthController exposes the JSON auth surface.
type AuthController struct {
	Debug  bool
	Logger Logger
	Auther Authenticator
	Repo   RepositoryManager
	Routes *AuthControllerRoutes
	cfg    Config
}

type AuthControllerOption func(*AuthController) *AuthController

// WithControllerDebug enables verbose error payload logging.
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// WithControllerRepo enables the registration route.
func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithHTTPLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func NewAuthController(auther Authenticator, cfg Config, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Auther: auther,
		cfg:    cfg,
		Routes: &AuthControllerRoutes{
			Login:    "/auth/login",
			Verify:   "/auth/verify",
			Refresh:  "/auth/refresh",
			Logout:   "/auth/logout",
			Register: "/auth/register",
		},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

// RegisterAuthRoutes mounts the auth surface on the app. The registration
// route is only mounted when a repository manager was provided.
func RegisterAuthRoutes(app *fiber.App, controller *AuthController) {
	app.Post(controller.Routes.Login, controller.LoginPost).Name("auth.login")
	app.Get(controller.Routes.Verify, controller.VerifyGet).Name("auth.verify")
	app.Post(controller.Routes.Refresh, controller.RefreshPost).Name("auth.refresh")
	app.Post(controller.Routes.Logout, controller.LogoutPost).Name("auth.logout")

	if controller.Repo != nil {
		app.Post(controller.Routes.Register, controller.RegisterPost).Name("auth.register")
	}
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := LoginRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return a.respondError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse login payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.respondError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload").
			WithCode(goerrors.CodeBadRequest))
	}

	var roles []Role
	if payload.Role != "" {
		roles = append(roles, Role(payload.Role))
	}

	pair, _, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password, roles...)
	if err != nil {
		a.Logger.Info("login rejected email=%s", NormalizeEmail(payload.Email))
		return a.respondError(c, err)
	}

	session, err := a.Auther.SessionFromToken(pair.AccessToken)
	if err != nil {
		return a.respondError(c, err)
	}

	principal, ok := session.(*SessionObject)
	if !ok {
		return a.respondError(c, ErrUnableToDecodeSession)
	}

	return c.JSON(LoginResponse{
		Principal: principal,
		TokenPair: *pair,
	})
}

// VerifyGet checks the presented bearer token. It always answers 200 and
// has no store side effects; validity travels in the body.
func (a *AuthController) VerifyGet(c *fiber.Ctx) error {
	extract := makeTokenExtractor(a.cfg)

	token, err := extract(c)
	if err != nil {
		return c.JSON(VerifyResponse{Valid: false, Reason: TextCodeTokenMalformed})
	}

	session, err := a.Auther.SessionFromToken(token)
	if err != nil {
		reason := TextCodeTokenMalformed
		if IsTokenExpiredError(err) {
			reason = TextCodeTokenExpired
		}
		return c.JSON(VerifyResponse{Valid: false, Reason: reason})
	}

	claims, _ := session.(*SessionObject)
	return c.JSON(VerifyResponse{Valid: true, Claims: claims})
}

func (a *AuthController) RefreshPost(c *fiber.Ctx) error {
	payload := RefreshRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return a.respondError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse refresh payload").
			WithCode(goerrors.CodeBadRequest))
	}

	token, expiresAt, err := a.Auther.Refresh(c.UserContext(), payload.RefreshToken)
	if err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(RefreshResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
	})
}

// LogoutPost acknowledges unconditionally. Token issuance is stateless, so
// there is nothing server-side to tear down; the client clears its own
// snapshot.
func (a *AuthController) LogoutPost(c *fiber.Ctx) error {
	payload := LogoutRequest{}
	if err := c.BodyParser(&payload); err != nil {
		a.Logger.Debug("logout payload unparsable: %v", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (a *AuthController) RegisterPost(c *fiber.Ctx) error {
	if a.Repo == nil {
		return a.respondError(c, goerrors.New("registration is not enabled", goerrors.CategoryOperation))
	}

	msg := RegisterUserMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return a.respondError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse registration payload").
			WithCode(goerrors.CodeBadRequest))
	}

	user, err := RegisterUser(c.UserContext(), a.Repo, msg)
	if err != nil {
		return a.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
	})
}

func (a *AuthController) respondError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "unexpected error")
	}

	if a.Debug {
		a.Logger.Debug(
			"auth controller error category=%s text_code=%s details=%s",
			richErr.Category,
			richErr.TextCode,
			print.MaybePrettyJSON(richErr.Metadata),
		)
	}

	return c.Status(statusFromError(richErr)).JSON(errorBody(richErr))
}

// statusFromError maps an error category to an HTTP status.
func statusFromError(err error) int {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return fiber.StatusInternalServerError
	}

	switch richErr.Category {
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// errorBody renders the public error payload: message and text code only,
// never the wrapped source.
func errorBody(err error) fiber.Map {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return fiber.Map{"error": "unexpected error"}
	}

	body := fiber.Map{"error": richErr.Message}
	if richErr.TextCode != "" {
		body["text_code"] = richErr.TextCode
	}
	return body
}
