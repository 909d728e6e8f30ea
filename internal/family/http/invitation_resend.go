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

type InvitationResendHandler struct {
	InvitationService *service.InvitationService
}

// ServeHTTP godoc
//
//	@Summary		Resend Invitation Endpoint
//	@Description	Rotate the token of a live pending invitation and restart its expiry
//	@Description	window. The old token stops working immediately. Only the family's
//	@Description	organizer may resend, and stale invitations must be re-issued instead.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		familysdk.InvitationTokenRequest	true	"Invitation token"
//	@Success		200		{object}	familysdk.CreateInvitationResponse	"invitation, invite_token"
//	@Failure		400		{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		403		{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		404		{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		409		{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		410		{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		500		{object}	familysdk.ErrorResponse				"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations/resend [post].
func (h *InvitationResendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		httpx.WriteJSON(w, http.StatusUnauthorized, familysdk.ErrorResponse{
			Error:            "unauthorized",
			ErrorDescription: "Authentication required",
		})
		return
	}

	var req familysdk.InvitationTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}
	if req.InviteToken == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "invite_token is required",
		})
		return
	}

	inv, newToken, err := h.InvitationService.Resend(ctx, userID, req.InviteToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, familysdk.ErrorResponse{
				Error:            "not_found",
				ErrorDescription: "Invitation not found",
			})
		case errors.Is(err, service.ErrNotFamilyAdmin):
			httpx.WriteJSON(w, http.StatusForbidden, familysdk.ErrorResponse{
				Error:            "access_denied",
				ErrorDescription: "Only the family's organizer can resend invitations",
			})
		case errors.Is(err, service.ErrInviteNotPending):
			httpx.WriteJSON(w, http.StatusConflict, familysdk.ErrorResponse{
				Error:            "conflict",
				ErrorDescription: "Invitation is no longer pending",
			})
		case errors.Is(err, service.ErrInviteExpired):
			httpx.WriteJSON(w, http.StatusGone, familysdk.ErrorResponse{
				Error:            "invalid_grant",
				ErrorDescription: "Invitation has expired, issue a new one instead",
			})
		default:
			log.Error("failed to resend invitation", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, familysdk.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to resend invitation",
			})
		}
		return
	}

	response := familysdk.CreateInvitationResponse{
		Invitation:  toInvitationInfo(inv, false),
		InviteToken: newToken,
	}

	httpx.WriteJSON(w, http.StatusOK, response)
}
