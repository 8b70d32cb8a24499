package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/guard"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/session"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// guardTimeout bounds how long a command waits for the session to settle.
const guardTimeout = 5 * time.Second

var errEmptyInput = errors.New("email and password must not be empty")

// guarded runs g against the live session and renders children only when the
// guard allows the current route.
func (a *App) guarded(ctx context.Context, g *guard.Guard, children func(io.Writer) error) error {
	wctx, cancel := context.WithTimeout(ctx, guardTimeout)
	defer cancel()

	var final guard.Decision
	_ = g.Watch(wctx, guard.Signals(wctx, a.store), func(d guard.Decision) {
		final = d
		if d.Phase != guard.Checking {
			cancel()
		}
	})

	switch final.Phase {
	case guard.Checking:
		fmt.Fprintln(a.out, "Session is still being checked, try again")
		return nil
	case guard.RedirectingAway:
		fmt.Fprintln(a.out, "Redirected to", final.Target)
		return nil
	}

	err := guard.Render(a.out, final, children)
	if final.Phase == guard.ErrorDisplay {
		fmt.Fprintln(a.out, "(type 'dismiss' to continue)")
	}
	return err
}

func (a *App) readCredentials(w io.Writer) (string, []byte, error) {
	email, err := GetSimpleText(a.reader, "Email:", w)
	if err != nil {
		return "", nil, err
	}

	password, err := GetPassword(w)
	if err != nil {
		return "", nil, err
	}

	if email == "" || len(password) == 0 {
		common.WipeByteArray(password)
		return "", nil, errEmptyInput
	}
	return email, password, nil
}

// Register creates an account and sends the user to sign-in. It does not
// start a session.
func (a *App) Register(ctx context.Context) error {
	a.router.Replace(guard.SignUpPath)

	return a.guarded(ctx, a.guestGuard, func(w io.Writer) error {
		email, password, err := a.readCredentials(w)
		if err != nil {
			fmt.Fprintln(w, "Registration failed:", err)
			return err
		}
		defer common.WipeByteArray(password)

		u, err := a.authService.Register(ctx, email, string(password))
		if err != nil {
			fmt.Fprintln(w, "Registration failed:", err)
			return err
		}

		fmt.Fprintf(w, "Account %s created, you can log in now\n", u.Email)
		a.router.Replace(guard.SignInPath)
		return nil
	})
}

// Login authenticates through the session store. Afterwards the guest guard
// runs again: it either moves to the dashboard or shows the login error.
func (a *App) Login(ctx context.Context) error {
	a.router.Replace(guard.SignInPath)

	var (
		attempted bool
		loginErr  error
	)
	err := a.guarded(ctx, a.guestGuard, func(w io.Writer) error {
		email, password, err := a.readCredentials(w)
		if err != nil {
			fmt.Fprintln(w, "Login failed:", err)
			return err
		}
		defer common.WipeByteArray(password)

		attempted = true
		loginErr = session.RunLogin(ctx, a.store, func(ctx context.Context) (*models.User, error) {
			return a.authService.Login(ctx, email, string(password))
		})
		if loginErr == nil {
			fmt.Fprintln(w, "Logged in as", email)
		}
		return nil
	})
	if err != nil || !attempted {
		return err
	}

	if err := a.guarded(ctx, a.guestGuard, func(io.Writer) error { return nil }); err != nil {
		return err
	}
	return loginErr
}

// WhoAmI prints the session user.
func (a *App) WhoAmI(ctx context.Context) error {
	a.router.Replace(guard.DashboardPath)

	return a.guarded(ctx, a.authGuard, func(w io.Writer) error {
		u := a.store.State().User
		if u == nil {
			return nil
		}
		_, err := fmt.Fprintf(w, "id: %s\nemail: %s\ncreated: %s\n", u.ID, u.Email, u.CreatedAt.Format(time.RFC3339))
		return err
	})
}

// Refresh re-reads the session user from the server.
func (a *App) Refresh(ctx context.Context) error {
	a.router.Replace(guard.DashboardPath)

	return a.guarded(ctx, a.authGuard, func(w io.Writer) error {
		if err := session.RunLogin(ctx, a.store, a.authService.Me); err != nil {
			fmt.Fprintln(w, "Refresh failed:", err)
			return err
		}
		fmt.Fprintln(w, "Session refreshed")
		return nil
	})
}

func (a *App) Logout(ctx context.Context) error {
	a.router.Replace(guard.DashboardPath)

	return a.guarded(ctx, a.authGuard, func(w io.Writer) error {
		if err := session.RunLogout(ctx, a.store, a.authService.Logout); err != nil {
			fmt.Fprintln(w, "Logout failed:", err)
			return err
		}
		fmt.Fprintln(w, "Logged out")
		a.router.Replace(guard.SignInPath)
		return nil
	})
}

// Dismiss clears the session error so guarded commands render again.
func (a *App) Dismiss(ctx context.Context) error {
	a.store.Dispatch(session.ResetErrorAction())
	fmt.Fprintln(a.out, "Error dismissed")
	return nil
}
