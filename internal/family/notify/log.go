package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes events to the structured log. It is the default target
// in environments with no SMTP or broker configured so the flow stays
// observable in development.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l *LogNotifier) InvitationCreated(ctx context.Context, ev InvitationEvent) error {
	l.Logger.Info("invitation created",
		slog.String("invitation_id", ev.InvitationID),
		slog.String("family_id", ev.FamilyID),
		slog.String("invitee_email", ev.InviteeEmail),
		slog.String("role", ev.Role),
		slog.Time("expires_at", ev.ExpiresAt),
	)
	return nil
}

func (l *LogNotifier) VerificationCode(ctx context.Context, ev CodeEvent) error {
	l.Logger.Info("verification code issued",
		slog.String("email", ev.Email),
		slog.Time("expires_at", ev.ExpiresAt),
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
