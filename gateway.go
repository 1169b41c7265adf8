package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Gateway is the client-side network boundary of the session controller.
// Every call is bounded by the controller's request timeout; transport
// failures are reported as the transient error class and never as a
// credential or token failure.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*TokenPair, *SessionObject, error)
	Verify(ctx context.Context, accessToken string) (*SessionObject, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	LogoutNotify(ctx context.Context, refreshToken string) error
}

// HTTPGateway talks to the portal's REST auth surface.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	logger  Logger
}

// NewHTTPGateway builds a gateway against baseURL. The underlying client
// carries its own timeout as a second bound besides the per-call context.
func NewHTTPGateway(baseURL string, cfg Config) *HTTPGateway {
	timeout := cfg.GetRequestTimeout()
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  defLogger{},
	}
}

func (g *HTTPGateway) WithLogger(logger Logger) *HTTPGateway {
	if logger != nil {
		g.logger = logger
	}
	return g
}

func (g *HTTPGateway) Login(ctx context.Context, email, password string) (*TokenPair, *SessionObject, error) {
	payload := LoginRequest{Email: email, Password: password}

	var out LoginResponse
	status, err := g.postJSON(ctx, "/auth/login", payload, &out)
	if err != nil {
		return nil, nil, wrapTransient(err, "login request failed")
	}

	switch {
	case status == http.StatusOK:
		return &out.TokenPair, out.Principal, nil
	case status == http.StatusUnauthorized:
		return nil, nil, ErrInvalidCredentials
	case status >= 500:
		return nil, nil, wrapTransient(fmt.Errorf("login returned status %d", status), "login server error")
	default:
		return nil, nil, ErrInvalidCredentials
	}
}

func (g *HTTPGateway) Verify(ctx context.Context, accessToken string) (*SessionObject, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/auth/verify", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, wrapTransient(err, "verify request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, wrapTransient(fmt.Errorf("verify returned status %d", resp.StatusCode), "verify server error")
	}

	var out VerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, wrapTransient(err, "verify response undecodable")
	}

	if !out.Valid {
		if out.Reason == TextCodeTokenExpired {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	return out.Claims, nil
}

func (g *HTTPGateway) Refresh(ctx context.Context, refreshToken string) (string, error) {
	payload := RefreshRequest{RefreshToken: refreshToken}

	var out RefreshResponse
	status, err := g.postJSON(ctx, "/auth/refresh", payload, &out)
	if err != nil {
		return "", wrapTransient(err, "refresh request failed")
	}

	switch {
	case status == http.StatusOK:
		return out.AccessToken, nil
	case status >= 500:
		return "", wrapTransient(fmt.Errorf("refresh returned status %d", status), "refresh server error")
	default:
		return "", ErrRefreshRejected
	}
}

// LogoutNotify tells the server to drop the refresh token. Best effort:
// the caller clears local state no matter what this returns.
func (g *HTTPGateway) LogoutNotify(ctx context.Context, refreshToken string) error {
	payload := LogoutRequest{RefreshToken: refreshToken}

	status, err := g.postJSON(ctx, "/auth/logout", payload, nil)
	if err != nil {
		return wrapTransient(err, "logout notify failed")
	}
	if status >= 500 {
		return wrapTransient(fmt.Errorf("logout returned status %d", status), "logout server error")
	}
	return nil
}

func (g *HTTPGateway) postJSON(ctx context.Context, path string, payload, out any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}

	return resp.StatusCode, nil
}

var _ Gateway = (*HTTPGateway)(nil)
