package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kinfolkhq/kinfolk/internal/family/service"
	"github.com/kinfolkhq/kinfolk/pkg/familysdk"
	"github.com/kinfolkhq/kinfolk/pkg/httpx"
	"github.com/kinfolkhq/kinfolk/pkg/slogx"
)

type InvitationCreateHandler struct {
	InvitationService *service.InvitationService
}

// ServeHTTP godoc
//
//	@Summary		Create Invitation Endpoint
//	@Description	Invite an email address into a family. The caller must be the family's
//	@Description	organizer. The returned opaque token is shown exactly once; only its
//	@Description	fingerprint is stored.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			familyID	path		string								true	"Family ID"
//	@Param			request		body		familysdk.CreateInvitationRequest	true	"Invitation request"
//	@Success		201			{object}	familysdk.CreateInvitationResponse	"invitation, invite_token"
//	@Failure		400			{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		403			{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		404			{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		409			{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		500			{object}	familysdk.ErrorResponse				"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/families/{familyID}/invitations [post].
func (h *InvitationCreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	familyID := r.PathValue("familyID")

	var req familysdk.CreateInvitationRequest
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
	if req.Role == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "role is required",
		})
		return
	}

	inv, token, err := h.InvitationService.Create(ctx, userID, familyID, req.Email, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRole):
			httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: "Role must be parent, adult or child",
			})
		case errors.Is(err, service.ErrInvalidEmail):
			httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: "email address is not valid",
			})
		case errors.Is(err, service.ErrFamilyNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, familysdk.ErrorResponse{
				Error:            "not_found",
				ErrorDescription: "Family not found",
			})
		case errors.Is(err, service.ErrNotFamilyAdmin):
			httpx.WriteJSON(w, http.StatusForbidden, familysdk.ErrorResponse{
				Error:            "access_denied",
				ErrorDescription: "Only the family's organizer can invite",
			})
		case errors.Is(err, service.ErrAlreadyMember):
			httpx.WriteJSON(w, http.StatusConflict, familysdk.ErrorResponse{
				Error:            "conflict",
				ErrorDescription: "That email already belongs to a member of this family",
			})
		case errors.Is(err, service.ErrDuplicateInvite):
			httpx.WriteJSON(w, http.StatusConflict, familysdk.ErrorResponse{
				Error:            "conflict",
				ErrorDescription: "A pending invitation for that email already exists",
			})
		default:
			log.Error("failed to create invitation", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, familysdk.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to create invitation",
			})
		}
		return
	}

	response := familysdk.CreateInvitationResponse{
		Invitation:  toInvitationInfo(inv, inv.Expired(time.Now())),
		InviteToken: token,
	}

	httpx.WriteJSON(w, http.StatusCreated, response)
}
