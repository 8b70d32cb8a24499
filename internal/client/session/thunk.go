package session

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

// Dispatcher is what the async helpers need from a Store.
type Dispatcher interface {
	Dispatch(Action)
}

// RunLogin dispatches LoginPending, runs op and then dispatches either
// LoginFulfilled with the returned user or LoginRejected with the error text.
// The error is returned as well so callers can react to it.
func RunLogin(ctx context.Context, d Dispatcher, op func(context.Context) (*models.User, error)) error {
	d.Dispatch(LoginPendingAction())

	u, err := op(ctx)
	if err == nil && u == nil {
		err = errors.New("server returned no user")
	}
	if err != nil {
		d.Dispatch(LoginRejectedAction(err.Error()))
		return err
	}

	d.Dispatch(LoginFulfilledAction(u))
	return nil
}

// RunLogout is the logout counterpart of RunLogin.
func RunLogout(ctx context.Context, d Dispatcher, op func(context.Context) error) error {
	d.Dispatch(LogoutPendingAction())

	if err := op(ctx); err != nil {
		d.Dispatch(LogoutRejectedAction(err.Error()))
		return err
	}

	d.Dispatch(LogoutFulfilledAction())
	return nil
}

// RunRestore loads a previously saved session user. A nil user with no error
// means nothing was saved and ends in the logged-out state.
func RunRestore(ctx context.Context, d Dispatcher, op func(context.Context) (*models.User, error)) error {
	d.Dispatch(LoginPendingAction())

	u, err := op(ctx)
	switch {
	case err != nil:
		d.Dispatch(LoginRejectedAction(err.Error()))
		return err
	case u == nil:
		d.Dispatch(LogoutFulfilledAction())
	default:
		d.Dispatch(LoginFulfilledAction(u))
	}
	return nil
}
