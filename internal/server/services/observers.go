package services

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// EventKind names what happened to an account.
type EventKind string

const (
	EventRegistered            EventKind = "registered"
	EventLoggedIn              EventKind = "logged_in"
	EventUpdated               EventKind = "updated"
	EventForgotPassword        EventKind = "forgot_password"
	EventPasswordReset         EventKind = "password_reset"
	EventVerificationRequested EventKind = "verification_requested"
	EventVerified              EventKind = "verified"
	EventDeleted               EventKind = "deleted"
)

// Event is delivered to observers after a mutating operation succeeded.
// Token is set for EventForgotPassword and EventVerificationRequested only.
type Event struct {
	Kind  EventKind
	User  *models.User
	Token string
}

// Observer reacts to account events, e.g. by sending mail. A returned error
// is logged and never fails the operation that produced the event.
type Observer interface {
	Record(ctx context.Context, e Event) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, e Event) error

func (f ObserverFunc) Record(ctx context.Context, e Event) error { return f(ctx, e) }

// Observe appends observers. They run in registration order.
func (s *UserService) Observe(obs ...Observer) {
	s.observers = append(s.observers, obs...)
}

func (s *UserService) notify(ctx context.Context, kind EventKind, user *models.User, token string) {
	e := Event{Kind: kind, User: user, Token: token}
	for i, o := range s.observers {
		if err := o.Record(ctx, e); err != nil {
			s.logger.Warn(ctx, "observer failed", "event", string(kind), "observer", i, "error", err)
		}
	}
}

// NewLogObserver returns an observer that logs the event kind and user id.
// Tokens are never logged.
func NewLogObserver(l logging.Logger) Observer {
	return ObserverFunc(func(ctx context.Context, e Event) error {
		var id string
		if e.User != nil {
			id = e.User.ID
		}
		l.Info(ctx, "account event", "event", string(e.Kind), "user_id", id)
		return nil
	})
}
