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

type RegisterHandler struct {
	OnboardingService *service.OnboardingService

	// ExposeDebugCodes returns the verification code in the response body.
	// Test environments only.
	ExposeDebugCodes bool
}

// ServeHTTP godoc
//
//	@Summary		Start Registration Endpoint
//	@Description	Start a registration for a new account. A 6-digit verification code is
//	@Description	emailed to the address; complete the flow with the confirm endpoint.
//	@Description	Pass an invitation token to bind the registration to an invitation.
//	@Tags			Onboarding
//	@Accept			json
//	@Produce		json
//	@Param			request	body		familysdk.RegisterRequest	true	"Registration request"
//	@Success		202		{object}	familysdk.RegisterResponse	"email"
//	@Failure		400		{object}	familysdk.ErrorResponse		"error, error_description"
//	@Failure		409		{object}	familysdk.ErrorResponse		"error, error_description"
//	@Failure		500		{object}	familysdk.ErrorResponse		"error, error_description"
//	@Router			/v1/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// Parse JSON request body
	var req familysdk.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	// Validate required fields
	if req.Email == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "email is required",
		})
		return
	}
	if req.Name == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "name is required",
		})
		return
	}
	if req.Password == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "password is required",
		})
		return
	}

	code, err := h.OnboardingService.BeginRegistration(ctx, req.Email, req.Name, req.Password, req.InviteToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: "email address is not valid",
			})
		case errors.Is(err, service.ErrInvalidRegistration):
			httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: "name and password are required",
			})
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteJSON(w, http.StatusConflict, familysdk.ErrorResponse{
				Error:            "conflict",
				ErrorDescription: "Email is already registered",
			})
		case errors.Is(err, service.ErrInvalidInviteToken):
			httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
				Error:            "invalid_grant",
				ErrorDescription: "Invitation token is invalid or no longer pending",
			})
		case errors.Is(err, service.ErrInviteExpired):
			httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
				Error:            "invalid_grant",
				ErrorDescription: "Invitation has expired",
			})
		case errors.Is(err, service.ErrEmailMismatch):
			httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
				Error:            "invalid_grant",
				ErrorDescription: "Invitation was issued for a different email address",
			})
		default:
			log.Error("failed to start registration", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, familysdk.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to start registration",
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
