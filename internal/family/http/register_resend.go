package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kinfolkhq/kinfolk/internal/family/domain"
	"github.com/kinfolkhq/kinfolk/internal/family/service"
	"github.com/kinfolkhq/kinfolk/pkg/familysdk"
	"github.com/kinfolkhq/kinfolk/pkg/httpx"
	"github.com/kinfolkhq/kinfolk/pkg/slogx"
)

type RegisterResendHandler struct {
	OnboardingService *service.OnboardingService

	// ExposeDebugCodes returns the verification code in the response body.
	// Test environments only.
	ExposeDebugCodes bool
}

// ServeHTTP godoc
//
//	@Summary		Resend Verification Code Endpoint
//	@Description	Issue a fresh verification code for an unverified account. The previous
//	@Description	code stops working immediately.
//	@Tags			Onboarding
//	@Accept			json
//	@Produce		json
//	@Param			request	body		familysdk.ResendCodeRequest	true	"Resend request"
//	@Success		202		{object}	familysdk.RegisterResponse	"email"
//	@Failure		400		{object}	familysdk.ErrorResponse		"error, error_description"
//	@Failure		404		{object}	familysdk.ErrorResponse		"error, error_description"
//	@Failure		409		{object}	familysdk.ErrorResponse		"error, error_description"
//	@Failure		500		{object}	familysdk.ErrorResponse		"error, error_description"
//	@Router			/v1/register/resend [post].
func (h *RegisterResendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req familysdk.ResendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	if req.Email == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "email is required",
		})
		return
	}

	code, err := h.OnboardingService.ResendCode(ctx, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, familysdk.ErrorResponse{
				Error:            "not_found",
				ErrorDescription: "No registration found for that email",
			})
		case errors.Is(err, service.ErrAlreadyVerified):
			httpx.WriteJSON(w, http.StatusConflict, familysdk.ErrorResponse{
				Error:            "conflict",
				ErrorDescription: "Account is already verified",
			})
		default:
			log.Error("failed to resend verification code", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, familysdk.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to resend verification code",
			})
		}
		return
	}

	response := familysdk.RegisterResponse{
		Email: domain.NormalizeEmail(req.Email),
	}
	if h.ExposeDebugCodes {
		response.DebugCode = code
	}

	httpx.WriteJSON(w, http.StatusAccepted, response)
}
