package notify

import (
	"context"
	"log/slog"
	"time"
)

const defaultDispatchTimeout = 10 * time.Second

// Dispatcher fans events out to its targets without blocking the caller.
// Failures are logged and otherwise ignored so a down mail server or broker
// never fails an invitation or registration.
type Dispatcher struct {
	Targets []Notifier
	Logger  *slog.Logger
	Timeout time.Duration
}

func (d *Dispatcher) InvitationCreated(ctx context.Context, ev InvitationEvent) {
	d.dispatch(ctx, "invitation_created", func(ctx context.Context, n Notifier) error {
		return n.InvitationCreated(ctx, ev)
	})
}

func (d *Dispatcher) VerificationCode(ctx context.Context, ev CodeEvent) {
	d.dispatch(ctx, "verification_code", func(ctx context.Context, n Notifier) error {
		return n.VerificationCode(ctx, ev)
	})
}

// dispatch detaches from the caller's context so delivery survives the
// request returning, but still bounds each target with a timeout.
func (d *Dispatcher) dispatch(ctx context.Context, kind string, send func(context.Context, Notifier) error) {
	base := context.WithoutCancel(ctx)

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}

	for _, target := range d.Targets {
		go func(n Notifier) {
			ctx, cancel := context.WithTimeout(base, timeout)
			defer cancel()

			if err := send(ctx, n); err != nil {
				d.Logger.Warn("notification delivery failed",
					slog.String("kind", kind),
					slog.Any("error", err),
				)
			}
		}(target)
	}
}
