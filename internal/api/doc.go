// Package api describes the GophAuth gRPC contract: request and response
// messages, the AuthService descriptor with its server and client bindings,
// and the JSON codec both sides speak.
//
// The service is declared by hand instead of through protoc output; the
// handlers and client stubs follow the shape of generated code so callers
// use them the same way.
package api
