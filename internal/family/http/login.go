package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kinfolkhq/kinfolk/internal/family/service"
	"github.com/kinfolkhq/kinfolk/pkg/familysdk"
	"github.com/kinfolkhq/kinfolk/pkg/httpx"
	"github.com/kinfolkhq/kinfolk/pkg/slogx"
)

type LoginHandler struct {
	OnboardingService *service.OnboardingService
}

// ServeHTTP godoc
//
//	@Summary		Login Endpoint
//	@Description	Authenticate a verified account with email and password. Returns a
//	@Description	bearer access token along with the user's family memberships.
//	@Tags			Onboarding
//	@Accept			json
//	@Produce		json
//	@Param			request	body		familysdk.LoginRequest		true	"Login request"
//	@Success		200		{object}	familysdk.SessionResponse	"access_token, user, memberships"
//	@Failure		400		{object}	familysdk.ErrorResponse		"error, error_description"
//	@Failure		401		{object}	familysdk.ErrorResponse		"error, error_description"
//	@Failure		403		{object}	familysdk.ErrorResponse		"error, error_description"
//	@Failure		500		{object}	familysdk.ErrorResponse		"error, error_description"
//	@Router			/v1/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req familysdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	if req.Email == "" || req.Password == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "email and password are required",
		})
		return
	}

	res, err := h.OnboardingService.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteJSON(w, http.StatusUnauthorized, familysdk.ErrorResponse{
				Error:            "invalid_grant",
				ErrorDescription: "Invalid email or password",
			})
		case errors.Is(err, service.ErrNotVerified):
			httpx.WriteJSON(w, http.StatusForbidden, familysdk.ErrorResponse{
				Error:            "access_denied",
				ErrorDescription: "Email address is not verified",
			})
		default:
			log.Error("failed to log in", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, familysdk.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to log in",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(res, ""))
}
