package domain

// Session is the credential bundle handed to a caller after login or
// registration confirmation. Access tokens are short-lived JWTs; there is no
// refresh flow.
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // always "Bearer"
	ExpiresIn   int64  `json:"expires_in"` // seconds until expiry
}
