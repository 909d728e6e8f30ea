package familysdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	// ErrorCodeInvalidRequest means the request is malformed or missing
	// required parameters.
	ErrorCodeInvalidRequest = "invalid_request"

	// ErrorCodeInvalidGrant covers bad credentials, bad verification codes
	// and invitation tokens that are unknown, expired or no longer pending.
	ErrorCodeInvalidGrant = "invalid_grant"

	// ErrorCodeInvalidToken means the bearer access token is missing or bad.
	ErrorCodeInvalidToken = "invalid_token"

	// ErrorCodeAccessDenied means the caller is authenticated but not
	// allowed to perform the operation (e.g. not the family's organizer).
	ErrorCodeAccessDenied = "access_denied"

	// ErrorCodeConflict means the operation collides with existing state,
	// such as a duplicate pending invitation or an existing membership.
	ErrorCodeConflict = "conflict"

	// ErrorCodeNotFound means the referenced resource does not exist.
	ErrorCodeNotFound = "not_found"

	// ErrorCodeServerError means something unexpected went wrong server-side.
	ErrorCodeServerError = "server_error"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is the typed error the SDK returns for every non-2xx response.
type APIError struct {
	// StatusCode is the HTTP status of the response. It never appears in the
	// body.
	StatusCode int `json:"-"`

	// Code is the machine-readable error code, e.g. "invalid_request".
	Code string `json:"error"`

	// Description explains the failure for humans.
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewAPIError builds an APIError from its parts.
func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Description: description}
}

// ErrSessionExpired is returned when a session's access token has expired.
// Sessions carry no refresh token; authenticate again for a fresh one.
var ErrSessionExpired = &APIError{
	StatusCode:  http.StatusUnauthorized,
	Code:        ErrorCodeInvalidToken,
	Description: "session expired, authenticate again",
}

// ============================================================================
// Error Parsing
// ============================================================================

// parseErrorResponse turns a non-2xx response into a typed *APIError. Bodies
// that do not parse as an error document fall back to the HTTP status text.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return NewAPIError(resp.StatusCode, errResp.Error, errResp.ErrorDescription)
	}

	return NewAPIError(resp.StatusCode, ErrorCodeServerError,
		fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
}
