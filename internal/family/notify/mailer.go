package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer sends invitation and verification emails over SMTP. InviteBaseURL is
// the public page that redeems invite tokens; the raw token is appended as the
// final path segment.
type Mailer struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	InviteBaseURL string
}

func (m *Mailer) InvitationCreated(ctx context.Context, ev InvitationEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("You're invited to join %s", ev.FamilyName)
	body := fmt.Sprintf(`
	<html>
	<body style="font-family: sans-serif; color: #333;">
		<h2>Join %s</h2>
		<p>%s has invited you to join their family group as a <b>%s</b>.</p>
		<p><a href="%s/%s">Accept the invitation</a></p>
		<p style="color: #888; font-size: 12px;">This invitation expires on %s.
		If you weren't expecting it you can ignore this email.</p>
	</body>
	</html>
	`, ev.FamilyName, ev.InviterName, ev.Role,
		m.InviteBaseURL, ev.Token, ev.ExpiresAt.Format("Jan 2 2006, 3:04 PM MST"))

	return m.send(ev.InviteeEmail, subject, body)
}

func (m *Mailer) VerificationCode(ctx context.Context, ev CodeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body := fmt.Sprintf(`
	<html>
	<body style="font-family: sans-serif; color: #333;">
		<h2>Verify your email</h2>
		<p>Your verification code is:</p>
		<p style="font-size: 28px; letter-spacing: 6px;"><b>%s</b></p>
		<p style="color: #888; font-size: 12px;">The code expires at %s.</p>
	</body>
	</html>
	`, ev.Code, ev.ExpiresAt.Format("3:04 PM MST"))

	return m.send(ev.Email, "Your verification code", body)
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

var _ Notifier = (*Mailer)(nil)
