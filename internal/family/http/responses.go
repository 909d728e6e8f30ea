package http

import (
	"time"

	"github.com/kinfolkhq/kinfolk/internal/family/domain"
	"github.com/kinfolkhq/kinfolk/internal/family/service"
	"github.com/kinfolkhq/kinfolk/pkg/familysdk"
)

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toUserInfo(u domain.User) familysdk.UserInfo {
	return familysdk.UserInfo{
		UserID:   u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Verified: u.Verified,
	}
}

func toMembershipInfo(m domain.MembershipDetail) familysdk.MembershipInfo {
	return familysdk.MembershipInfo{
		MembershipID: m.ID,
		FamilyID:     m.FamilyID,
		FamilyName:   m.FamilyName,
		Role:         string(m.Role),
		JoinedAt:     fmtTime(m.CreatedAt),
	}
}

func toInvitationInfo(inv domain.Invitation, expired bool) familysdk.InvitationInfo {
	return familysdk.InvitationInfo{
		ID:        inv.ID,
		FamilyID:  inv.FamilyID,
		Email:     inv.InviteeEmail,
		Role:      string(inv.Role),
		Status:    string(inv.Status),
		Expired:   expired,
		ExpiresAt: fmtTime(inv.ExpiresAt),
		CreatedAt: fmtTime(inv.CreatedAt),
	}
}

func toSessionResponse(res service.AuthResult, warning string) familysdk.SessionResponse {
	memberships := make([]familysdk.MembershipInfo, 0, len(res.Memberships))
	for _, m := range res.Memberships {
		memberships = append(memberships, toMembershipInfo(m))
	}

	return familysdk.SessionResponse{
		AccessToken: res.Session.AccessToken,
		TokenType:   res.Session.TokenType,
		ExpiresIn:   int(res.Session.ExpiresIn),
		User:        toUserInfo(res.User),
		Memberships: memberships,
		Warning:     warning,
	}
}
