package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventPublisher publishes notification events to an AMQP queue for
// downstream consumers (push notifications, audit, analytics). Published
// payloads never contain raw tokens or codes.
type EventPublisher struct {
	conn  *amqp.Connection
	chn   *amqp.Channel
	queue string
}

// NewEventPublisher dials the broker and declares a durable queue.
func NewEventPublisher(url, queue string) (*EventPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	chn, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = chn.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		chn.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return &EventPublisher{conn: conn, chn: chn, queue: queue}, nil
}

func (p *EventPublisher) Close() error {
	if err := p.chn.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}

type invitationCreatedEvent struct {
	Type         string    `json:"type"`
	InvitationID string    `json:"invitation_id"`
	FamilyID     string    `json:"family_id"`
	InviteeEmail string    `json:"invitee_email"`
	Role         string    `json:"role"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type verificationCodeEvent struct {
	Type      string    `json:"type"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (p *EventPublisher) InvitationCreated(ctx context.Context, ev InvitationEvent) error {
	return p.publish(ctx, invitationCreatedEvent{
		Type:         "invitation.created",
		InvitationID: ev.InvitationID,
		FamilyID:     ev.FamilyID,
		InviteeEmail: ev.InviteeEmail,
		Role:         ev.Role,
		ExpiresAt:    ev.ExpiresAt,
	})
}

func (p *EventPublisher) VerificationCode(ctx context.Context, ev CodeEvent) error {
	return p.publish(ctx, verificationCodeEvent{
		Type:      "verification.code_issued",
		Email:     ev.Email,
		ExpiresAt: ev.ExpiresAt,
	})
}

func (p *EventPublisher) publish(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.chn.PublishWithContext(ctx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

var _ Notifier = (*EventPublisher)(nil)
