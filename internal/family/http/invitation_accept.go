package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kinfolkhq/kinfolk/internal/family/service"
	"github.com/kinfolkhq/kinfolk/pkg/familysdk"
	"github.com/kinfolkhq/kinfolk/pkg/httpx"
	"github.com/kinfolkhq/kinfolk/pkg/slogx"
)

type InvitationAcceptHandler struct {
	InvitationService *service.InvitationService
}

// ServeHTTP godoc
//
//	@Summary		Accept Invitation Endpoint
//	@Description	Join the authenticated user to the inviting family. The session's email
//	@Description	must match the invitee address and the invitation must still be pending
//	@Description	and inside its deadline; expiry is checked live, not via the sweeper.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		familysdk.InvitationTokenRequest	true	"Invitation token"
//	@Success		200		{object}	familysdk.AcceptInvitationResponse	"membership_id, family_id, family_name, role"
//	@Failure		400		{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		403		{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		404		{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		409		{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		410		{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		500		{object}	familysdk.ErrorResponse				"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations/accept [post].
func (h *InvitationAcceptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.InvitationService.Accept(ctx, userID, req.InviteToken)
	if err != nil {
		writeAcceptDeclineError(w, log, err, "accept")
		return
	}

	response := familysdk.AcceptInvitationResponse{
		MembershipID: res.Membership.ID,
		FamilyID:     res.Family.ID,
		FamilyName:   res.Family.Name,
		Role:         string(res.Membership.Role),
	}

	httpx.WriteJSON(w, http.StatusOK, response)
}

// writeAcceptDeclineError maps the shared accept/decline failure modes onto
// HTTP responses.
func writeAcceptDeclineError(w http.ResponseWriter, log *slog.Logger, err error, verb string) {
	switch {
	case errors.Is(err, service.ErrInviteNotFound):
		httpx.WriteJSON(w, http.StatusNotFound, familysdk.ErrorResponse{
			Error:            "not_found",
			ErrorDescription: "Invitation not found",
		})
	case errors.Is(err, service.ErrInviteNotPending):
		httpx.WriteJSON(w, http.StatusConflict, familysdk.ErrorResponse{
			Error:            "conflict",
			ErrorDescription: "Invitation is no longer pending",
		})
	case errors.Is(err, service.ErrInviteExpired):
		httpx.WriteJSON(w, http.StatusGone, familysdk.ErrorResponse{
			Error:            "invalid_grant",
			ErrorDescription: "Invitation has expired",
		})
	case errors.Is(err, service.ErrEmailMismatch):
		httpx.WriteJSON(w, http.StatusForbidden, familysdk.ErrorResponse{
			Error:            "access_denied",
			ErrorDescription: "Invitation was issued for a different email address",
		})
	case errors.Is(err, service.ErrAlreadyMember):
		httpx.WriteJSON(w, http.StatusConflict, familysdk.ErrorResponse{
			Error:            "conflict",
			ErrorDescription: "You already belong to this family",
		})
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteJSON(w, http.StatusUnauthorized, familysdk.ErrorResponse{
			Error:            "invalid_token",
			ErrorDescription: "Authenticated user no longer exists",
		})
	default:
		log.Error("failed to "+verb+" invitation", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, familysdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to " + verb + " invitation",
		})
	}
}
