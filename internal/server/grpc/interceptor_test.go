package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

var meInfo = &grpc.UnaryServerInfo{FullMethod: api.AuthService_Me_FullMethodName}

// captureUser records the identity the handler sees.
func captureUser(got **models.User) grpc.UnaryHandler {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		*got = userFromContext(ctx)
		return "ok", nil
	}
}

func incoming(email, password string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		common.EmailHeaderName, email,
		common.PasswordHeaderName, password,
	))
}

func TestInterceptor_OtherMethodsUntouched(t *testing.T) {
	u := &fakeUsers{}
	s := newServer(u)

	var got *models.User
	info := &grpc.UnaryServerInfo{FullMethod: api.AuthService_Login_FullMethodName}
	resp, err := s.credentialsInterceptor(incoming("a@x.io", "pw"), nil, info, captureUser(&got))

	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Nil(t, got)
	assert.Zero(t, u.authCalls)
}

func TestInterceptor_Me_AttachesUser(t *testing.T) {
	want := &models.User{ID: "u1", Email: "a@x.io"}
	s := newServer(&fakeUsers{authOut: want})

	var got *models.User
	_, err := s.credentialsInterceptor(incoming("a@x.io", "pw"), nil, meInfo, captureUser(&got))

	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestInterceptor_Me_MissingMetadata(t *testing.T) {
	u := &fakeUsers{}
	s := newServer(u)

	var got *models.User
	_, err := s.credentialsInterceptor(context.Background(), nil, meInfo, captureUser(&got))

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, u.authCalls)
}

func TestInterceptor_Me_InvalidCredentials(t *testing.T) {
	s := newServer(&fakeUsers{authErr: common.ErrorInvalidCredentials})

	var got *models.User
	_, err := s.credentialsInterceptor(incoming("a@x.io", "bad"), nil, meInfo, captureUser(&got))

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInterceptor_Me_StoreError(t *testing.T) {
	s := newServer(&fakeUsers{authErr: errors.New("db down")})

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called on store failure")
		return nil, nil
	}
	_, err := s.credentialsInterceptor(incoming("a@x.io", "pw"), nil, meInfo, h)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	s := newServer(&fakeUsers{})
	wantErr := status.Error(codes.NotFound, "x")

	resp, err := s.loggingInterceptor(context.Background(), "req", meInfo,
		func(ctx context.Context, req interface{}) (interface{}, error) { return req, wantErr })

	assert.Equal(t, "req", resp)
	assert.Equal(t, wantErr, err)
}
