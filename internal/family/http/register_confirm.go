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

type RegisterConfirmHandler struct {
	OnboardingService *service.OnboardingService
}

// ServeHTTP godoc
//
//	@Summary		Confirm Registration Endpoint
//	@Description	Complete a registration with the emailed 6-digit code. On success the
//	@Description	account is verified, the user's own family is provisioned, any staged
//	@Description	invitation is redeemed, and a session is returned. If the staged
//	@Description	invitation could not be redeemed the response carries a warning and the
//	@Description	account is still fully usable.
//	@Tags			Onboarding
//	@Accept			json
//	@Produce		json
//	@Param			request	body		familysdk.ConfirmRequest	true	"Confirmation request"
//	@Success		200		{object}	familysdk.SessionResponse	"access_token, user, memberships"
//	@Failure		400		{object}	familysdk.ErrorResponse		"error, error_description"
//	@Failure		500		{object}	familysdk.ErrorResponse		"error, error_description"
//	@Router			/v1/register/confirm [post].
func (h *RegisterConfirmHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req familysdk.ConfirmRequest
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
	if req.Code == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "code is required",
		})
		return
	}

	res, err := h.OnboardingService.ConfirmRegistration(ctx, req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound):
			httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
				Error:            "invalid_grant",
				ErrorDescription: "Verification code is invalid or expired",
			})
		case errors.Is(err, service.ErrCodeMismatch):
			httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
				Error:            "invalid_grant",
				ErrorDescription: "Verification code is incorrect",
			})
		default:
			log.Error("failed to confirm registration", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, familysdk.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to confirm registration",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(res.AuthResult, res.Warning))
}
