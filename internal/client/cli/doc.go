// Package cli provides the interactive GophAuth command-line client.
//
// It wires configuration, the local session database, the API client, the
// session store and the route guards into a REPL. The prompt shows the
// current route and connectivity mode. Commands that belong to guest-only
// routes (register, login) run behind the guest guard; commands that need a
// signed-in user (whoami, refresh, logout) run behind the auth guard. A guard
// that sees the wrong kind of session redirects instead of running the
// command; a guard that sees a session error shows it until "dismiss".
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
