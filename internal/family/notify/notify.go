// Package notify delivers invitation and verification notifications to
// interested parties. Delivery is best-effort: the Dispatcher fans events out
// to its targets in the background and the calling operation never waits on
// or fails because of a notification.
package notify

import (
	"context"
	"time"
)

// InvitationEvent describes a freshly minted (or re-sent) invitation. Token is
// the raw invite token and is only ever rendered into the invitee's email;
// queue targets must not include it in published payloads.
type InvitationEvent struct {
	InvitationID string
	FamilyID     string
	FamilyName   string
	InviterName  string
	InviteeEmail string
	Role         string
	Token        string
	ExpiresAt    time.Time
}

// CodeEvent describes a verification code issued during registration. Code is
// the raw 6-digit code, subject to the same handling rule as
// InvitationEvent.Token.
type CodeEvent struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// Notifier delivers a single event to one destination (mailbox, queue, log).
type Notifier interface {
	InvitationCreated(ctx context.Context, ev InvitationEvent) error
	VerificationCode(ctx context.Context, ev CodeEvent) error
}
