package http

import (
	"errors"
	"net/http"

	"github.com/kinfolkhq/kinfolk/internal/family/domain"
	"github.com/kinfolkhq/kinfolk/internal/family/service"
	"github.com/kinfolkhq/kinfolk/pkg/familysdk"
	"github.com/kinfolkhq/kinfolk/pkg/httpx"
	"github.com/kinfolkhq/kinfolk/pkg/slogx"
)

type InvitationListHandler struct {
	InvitationService *service.InvitationService
}

// ServeHTTP godoc
//
//	@Summary		List Invitations Endpoint
//	@Description	List a family's invitations, newest first. Each record carries a live
//	@Description	expired flag computed against the clock, so a past-deadline invitation
//	@Description	reads as expired even before the sweeper has updated its status.
//	@Tags			Invitations
//	@Produce		json
//	@Param			familyID	path		string								true	"Family ID"
//	@Param			status		query		string								false	"Filter by status (pending, accepted, declined, expired, cancelled)"
//	@Success		200			{object}	familysdk.ListInvitationsResponse	"invitations"
//	@Failure		400			{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		403			{object}	familysdk.ErrorResponse				"error, error_description"
//	@Failure		500			{object}	familysdk.ErrorResponse				"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/families/{familyID}/invitations [get].
func (h *InvitationListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	var status *domain.InvitationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := domain.ParseInvitationStatus(raw)
		if err != nil {
			httpx.WriteJSON(w, http.StatusBadRequest, familysdk.ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: "status must be pending, accepted, declined, expired or cancelled",
			})
			return
		}
		status = &parsed
	}

	views, err := h.InvitationService.List(ctx, userID, familyID, status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFamilyAdmin):
			httpx.WriteJSON(w, http.StatusForbidden, familysdk.ErrorResponse{
				Error:            "access_denied",
				ErrorDescription: "Only the family's organizer can list invitations",
			})
		default:
			log.Error("failed to list invitations", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, familysdk.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to list invitations",
			})
		}
		return
	}

	invitations := make([]familysdk.InvitationInfo, 0, len(views))
	for _, v := range views {
		invitations = append(invitations, toInvitationInfo(v.Invitation, v.IsExpired))
	}

	httpx.WriteJSON(w, http.StatusOK, familysdk.ListInvitationsResponse{Invitations: invitations})
}
