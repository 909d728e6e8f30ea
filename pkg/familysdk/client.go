package familysdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the Kinfolk family service.
// It provides access to unauthenticated operations and can create
// authenticated Sessions via ConfirmRegistration or Login.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new family service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register starts a registration. The service emails a 6-digit verification
// code to the address; complete the flow with ConfirmRegistration. Pass an
// invitation token to bind the registration to an invitation.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	resp, err := c.postJSON(ctx, "/v1/register", req)
	if err != nil {
		return nil, err
	}

	var out RegisterResponse
	if err := decodeJSON(resp, &out, http.StatusAccepted); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmRegistration completes a registration with the emailed code and
// returns an authenticated session. The response's Warning field is
// surfaced via Session.Warning when a staged invitation could not be
// redeemed.
func (c *SDKClient) ConfirmRegistration(ctx context.Context, req ConfirmRequest) (*Session, error) {
	resp, err := c.postJSON(ctx, "/v1/register/confirm", req)
	if err != nil {
		return nil, err
	}

	var out SessionResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return newSession(c, &out), nil
}

// ResendVerificationCode requests a fresh verification code for an
// unverified account. The previous code stops working immediately.
func (c *SDKClient) ResendVerificationCode(ctx context.Context, email string) (*RegisterResponse, error) {
	resp, err := c.postJSON(ctx, "/v1/register/resend", ResendCodeRequest{Email: email})
	if err != nil {
		return nil, err
	}

	var out RegisterResponse
	if err := decodeJSON(resp, &out, http.StatusAccepted); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates a verified account and returns a session.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.postJSON(ctx, "/v1/login", LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var out SessionResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return newSession(c, &out), nil
}

// NewSessionFromToken creates a session from a previously issued access
// token. This is useful when the token was stored between runs. The session
// carries no user or membership details until refreshed by a new login.
func (c *SDKClient) NewSessionFromToken(accessToken string, expiresIn int) *Session {
	expiresAt := time.Now().Add(time.Duration(expiresIn) * time.Second)
	expiresAt = expiresAt.Add(-30 * time.Second) // expiry buffer

	return &Session{
		client:      c,
		accessToken: accessToken,
		expiresAt:   expiresAt,
	}
}
