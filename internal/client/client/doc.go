// Package client talks to the GophAuth server.
//
// The Client interface is the transport-agnostic contract used by the CLI
// services; GRPCClient implements it over gophauth.AuthService. After a
// successful Login the credentials stay in memory and an interceptor attaches
// them to every later call, which is how Me identifies the caller. gRPC
// status codes are mapped to the sentinel errors in errors.go.
//
// InitDatabase and RunMigrations bootstrap the local sqlite database that
// keeps the last session user between runs.
package client
