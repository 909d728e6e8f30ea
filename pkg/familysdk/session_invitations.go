package familysdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CreateInvitation invites an email address into a family. The caller must
// be the family's organizer. The returned token is shown exactly once.
func (s *Session) CreateInvitation(
	ctx context.Context,
	familyID string,
	req CreateInvitationRequest,
) (*CreateInvitationResponse, error) {
	path := fmt.Sprintf("/v1/families/%s/invitations", url.PathEscape(familyID))
	resp, err := s.doAuthJSON(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, err
	}

	var out CreateInvitationResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInvitations returns a family's invitations, newest first. Pass an
// empty status to list all of them, or one of pending, accepted, declined,
// expired, cancelled to filter.
func (s *Session) ListInvitations(
	ctx context.Context,
	familyID, status string,
) (*ListInvitationsResponse, error) {
	path := fmt.Sprintf("/v1/families/%s/invitations", url.PathEscape(familyID))
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	resp, err := s.doAuthJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out ListInvitationsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelInvitation withdraws a pending invitation. Organizer only.
func (s *Session) CancelInvitation(ctx context.Context, inviteToken string) error {
	resp, err := s.doAuthJSON(ctx, http.MethodPost, "/v1/invitations/cancel",
		InvitationTokenRequest{InviteToken: inviteToken})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// ResendInvitation rotates a pending invitation's token, restarts its
// deadline and re-delivers the invitation email. The previous token stops
// working immediately. Organizer only.
func (s *Session) ResendInvitation(ctx context.Context, inviteToken string) (*CreateInvitationResponse, error) {
	resp, err := s.doAuthJSON(ctx, http.MethodPost, "/v1/invitations/resend",
		InvitationTokenRequest{InviteToken: inviteToken})
	if err != nil {
		return nil, err
	}

	var out CreateInvitationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptInvitation joins the authenticated user to the inviting family. The
// session's email must match the invitee address.
func (s *Session) AcceptInvitation(ctx context.Context, inviteToken string) (*AcceptInvitationResponse, error) {
	resp, err := s.doAuthJSON(ctx, http.MethodPost, "/v1/invitations/accept",
		InvitationTokenRequest{InviteToken: inviteToken})
	if err != nil {
		return nil, err
	}

	var out AcceptInvitationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeclineInvitation declines an invitation addressed to the session's email.
func (s *Session) DeclineInvitation(ctx context.Context, inviteToken string) error {
	resp, err := s.doAuthJSON(ctx, http.MethodPost, "/v1/invitations/decline",
		InvitationTokenRequest{InviteToken: inviteToken})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
