// Package guard decides whether a route may render for the current session.
//
// A Guard maps each session Signal to a Decision. The guest guard lets only
// anonymous users through and sends signed-in users to the dashboard; the
// auth guard is its mirror image and sends anonymous users to sign-in.
package guard

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/session"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

const (
	SignInPath    = "/auth/sign-in"
	SignUpPath    = "/auth/sign-up"
	DashboardPath = "/dashboard"
)

// Signal is what a guard observes about the session.
type Signal struct {
	User      *models.User
	Error     string
	IsLoading bool
}

func FromState(s session.State) Signal {
	return Signal{User: s.User, Error: s.Error, IsLoading: s.IsLoading}
}

type Phase int

const (
	Checking Phase = iota
	Allowed
	ErrorDisplay
	RedirectingAway
)

func (p Phase) String() string {
	switch p {
	case Checking:
		return "checking"
	case Allowed:
		return "allowed"
	case ErrorDisplay:
		return "error"
	case RedirectingAway:
		return "redirecting"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Decision is the outcome for one Signal. Error is set in ErrorDisplay,
// Target in RedirectingAway.
type Decision struct {
	Phase  Phase
	Error  string
	Target string
}

// Navigator replaces the current route.
type Navigator interface {
	Replace(path string)
}

type Guard struct {
	name     string
	nav      Navigator
	logger   logging.Logger
	redirect func(Signal) bool
	target   string
}

// NewGuestGuard guards routes meant for anonymous users (sign-in, sign-up).
func NewGuestGuard(nav Navigator, l logging.Logger) *Guard {
	return &Guard{
		name:     "GuestGuard",
		nav:      nav,
		logger:   l.With("module", "guest_guard"),
		redirect: func(s Signal) bool { return s.User != nil },
		target:   DashboardPath,
	}
}

// NewAuthGuard guards routes that need a signed-in user.
func NewAuthGuard(nav Navigator, l logging.Logger) *Guard {
	return &Guard{
		name:     "AuthGuard",
		nav:      nav,
		logger:   l.With("module", "auth_guard"),
		redirect: func(s Signal) bool { return s.User == nil },
		target:   SignInPath,
	}
}

// Evaluate is pure: loading wins over error, error wins over redirect.
func (g *Guard) Evaluate(s Signal) Decision {
	switch {
	case s.IsLoading:
		return Decision{Phase: Checking}
	case s.Error != "":
		return Decision{Phase: ErrorDisplay, Error: s.Error}
	case g.redirect(s):
		return Decision{Phase: RedirectingAway, Target: g.target}
	default:
		return Decision{Phase: Allowed}
	}
}

// Watch evaluates every signal until ctx is done or signals is closed.
// onDecision (optional) is called with the initial Checking decision and on
// every change after it. Navigation happens once per entry into
// RedirectingAway; signals that arrive after ctx is done are dropped.
func (g *Guard) Watch(ctx context.Context, signals <-chan Signal, onDecision func(Decision)) error {
	last := Decision{Phase: Checking}
	if onDecision != nil {
		onDecision(last)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-signals:
			if !ok {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			d := g.Evaluate(s)
			if d == last {
				continue
			}
			last = d

			switch d.Phase {
			case RedirectingAway:
				g.logger.Debug(ctx, fmt.Sprintf("[%s]: redirecting", g.name), "to", d.Target)
				g.nav.Replace(d.Target)
			case ErrorDisplay:
				g.logger.Error(ctx, fmt.Sprintf("[%s]: error checking user session", g.name), "error", d.Error)
			}

			if onDecision != nil {
				onDecision(d)
			}
		}
	}
}

// Render writes what the guarded route shows for d. Only Allowed renders
// children.
func Render(w io.Writer, d Decision, children func(io.Writer) error) error {
	switch d.Phase {
	case ErrorDisplay:
		_, err := fmt.Fprintf(w, "error: %s\n", d.Error)
		return err
	case Allowed:
		return children(w)
	default:
		return nil
	}
}

// Subscriber is the part of session.Store that Signals needs.
type Subscriber interface {
	Subscribe(ctx context.Context) <-chan session.State
}

// Signals turns a store subscription into a Signal stream. The returned
// channel closes when ctx is done or the store closes the subscription.
func Signals(ctx context.Context, store Subscriber) <-chan Signal {
	states := store.Subscribe(ctx)
	out := make(chan Signal)

	go func() {
		defer close(out)
		for st := range states {
			select {
			case out <- FromState(st):
			case <-ctx.Done():
				// drain until the store closes the subscription
				for range states {
				}
				return
			}
		}
	}()

	return out
}
