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

type InvitationCancelHandler struct {
	InvitationService *service.InvitationService
}

// ServeHTTP godoc
//
//	@Summary		Cancel Invitation Endpoint
//	@Description	Withdraw a pending invitation. The record stays queryable in the
//	@Description	cancelled state and the outstanding token becomes useless. Organizer
//	@Description	only.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body	familysdk.InvitationTokenRequest	true	"Invitation token"
//	@Success		204		"invitation cancelled"
//	@Failure		400		{object}	familysdk.ErrorResponse	"error, error_description"
//	@Failure		403		{object}	familysdk.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	familysdk.ErrorResponse	"error, error_description"
//	@Failure		409		{object}	familysdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	familysdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations/cancel [post].
func (h *InvitationCancelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	if err := h.InvitationService.Cancel(ctx, userID, req.InviteToken); err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, familysdk.ErrorResponse{
				Error:            "not_found",
				ErrorDescription: "Invitation not found",
			})
		case errors.Is(err, service.ErrNotFamilyAdmin):
			httpx.WriteJSON(w, http.StatusForbidden, familysdk.ErrorResponse{
				Error:            "access_denied",
				ErrorDescription: "Only the family's organizer can cancel invitations",
			})
		case errors.Is(err, service.ErrInviteNotPending):
			httpx.WriteJSON(w, http.StatusConflict, familysdk.ErrorResponse{
				Error:            "conflict",
				ErrorDescription: "Invitation is no longer pending",
			})
		default:
			log.Error("failed to cancel invitation", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, familysdk.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to cancel invitation",
			})
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
