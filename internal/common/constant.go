// Package common contains shared constants and sentinel errors used across
// GophAuth components.
package common

// Metadata keys carrying credentials on outbound gRPC calls. The server-side
// credentials interceptor reads the same keys.
const (
	EmailHeaderName    = "x-auth-email"
	PasswordHeaderName = "x-auth-password"
)
