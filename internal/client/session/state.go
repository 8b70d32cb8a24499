// Package session projects authentication outcomes into client state.
//
// Reduce is a pure function from (State, Action) to State. Store owns one
// State in its own goroutine and applies actions sent through Dispatch;
// RunLogin, RunLogout and RunRestore wrap an async operation in the
// pending/fulfilled/rejected action triple.
package session

import "github.com/dmitrijs2005/gophauth/internal/client/models"

// UnknownError replaces an empty rejection message.
const UnknownError = "unknown error"

// State is the authentication slice of the client. Error == "" means there is
// no error to show.
type State struct {
	User            *models.User
	IsLoading       bool
	Error           string
	IsAuthenticated bool
}

// ActionType names an action the reducer understands.
type ActionType string

const (
	LoginPending    ActionType = "auth/login/pending"
	LoginFulfilled  ActionType = "auth/login/fulfilled"
	LoginRejected   ActionType = "auth/login/rejected"
	LogoutPending   ActionType = "auth/logout/pending"
	LogoutFulfilled ActionType = "auth/logout/fulfilled"
	LogoutRejected  ActionType = "auth/logout/rejected"
	ResetError      ActionType = "auth/resetError"
)

// Action is a state transition request. User is read by LoginFulfilled,
// Message by the rejected variants.
type Action struct {
	Type    ActionType
	User    *models.User
	Message string
}

func LoginPendingAction() Action { return Action{Type: LoginPending} }

func LoginFulfilledAction(u *models.User) Action { return Action{Type: LoginFulfilled, User: u} }

func LoginRejectedAction(msg string) Action { return Action{Type: LoginRejected, Message: msg} }

func LogoutPendingAction() Action { return Action{Type: LogoutPending} }

func LogoutFulfilledAction() Action { return Action{Type: LogoutFulfilled} }

func LogoutRejectedAction(msg string) Action { return Action{Type: LogoutRejected, Message: msg} }

func ResetErrorAction() Action { return Action{Type: ResetError} }

// Reduce returns the state that follows s after a. Unknown action types
// leave s unchanged.
func Reduce(s State, a Action) State {
	switch a.Type {
	case LoginPending, LogoutPending:
		s.IsLoading = true
		s.Error = ""
	case LoginFulfilled:
		s.User = a.User
		s.IsAuthenticated = true
		s.IsLoading = false
		s.Error = ""
	case LogoutFulfilled:
		s.User = nil
		s.IsAuthenticated = false
		s.IsLoading = false
		s.Error = ""
	case LoginRejected, LogoutRejected:
		s.IsLoading = false
		s.Error = a.Message
		if s.Error == "" {
			s.Error = UnknownError
		}
	case ResetError:
		s.Error = ""
	}
	return s
}
