package http

import (
	"encoding/json"
	"net/http"

	"github.com/kinfolkhq/kinfolk/internal/family/service"
	"github.com/kinfolkhq/kinfolk/pkg/familysdk"
	"github.com/kinfolkhq/kinfolk/pkg/httpx"
	"github.com/kinfolkhq/kinfolk/pkg/slogx"
)

type InvitationDeclineHandler struct {
	InvitationService *service.InvitationService
}

// ServeHTTP godoc
//
//	@Summary		Decline Invitation Endpoint
//	@Description	Settle a pending invitation as declined without creating a membership.
//	@Description	The session's email must match the invitee address. A declined
//	@Description	invitation keeps its row but its token can never be redeemed again.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body	familysdk.InvitationTokenRequest	true	"Invitation token"
//	@Success		204		"No Content"
//	@Failure		400		{object}	familysdk.ErrorResponse	"error, error_description"
//	@Failure		403		{object}	familysdk.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	familysdk.ErrorResponse	"error, error_description"
//	@Failure		409		{object}	familysdk.ErrorResponse	"error, error_description"
//	@Failure		410		{object}	familysdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	familysdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations/decline [post].
func (h *InvitationDeclineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	if err := h.InvitationService.Decline(ctx, userID, req.InviteToken); err != nil {
		writeAcceptDeclineError(w, log, err, "decline")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
