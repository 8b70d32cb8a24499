package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

/*************
 * Stub server
 *************/

type stubServer struct {
	api.UnimplementedAuthServiceServer

	mu       sync.Mutex
	lastMD   metadata.MD
	loginErr error
	pingResp string
}

func (s *stubServer) Register(_ context.Context, in *api.RegisterRequest) (*api.RegisterResponse, error) {
	if in.Email == "taken@x.io" {
		return nil, status.Error(codes.AlreadyExists, "exists")
	}
	return &api.RegisterResponse{User: &api.User{ID: "u1", Email: in.Email}}, nil
}

func (s *stubServer) Login(_ context.Context, in *api.LoginRequest) (*api.LoginResponse, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &api.LoginResponse{User: &api.User{ID: "u1", Email: in.Email}}, nil
}

func (s *stubServer) Me(ctx context.Context, _ *api.MeRequest) (*api.MeResponse, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	s.mu.Lock()
	s.lastMD = md
	s.mu.Unlock()

	email := md.Get(common.EmailHeaderName)
	if len(email) == 0 {
		return nil, status.Error(codes.Unauthenticated, "no identity")
	}
	return &api.MeResponse{User: &api.User{ID: "u1", Email: email[0]}}, nil
}

func (s *stubServer) Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(s.pingResp), nil
}

func (s *stubServer) seenMD() metadata.MD {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMD
}

func newTestClient(t *testing.T, srv *stubServer) *GRPCClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(api.ServerCodec())
	api.RegisterAuthServiceServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	c := &GRPCClient{endpointURL: "passthrough:///bufnet"}
	require.NoError(t, c.InitGRPCClient(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

/*************
 * Tests
 *************/

func TestMe_WithoutLogin_NoCredentialsSent(t *testing.T) {
	srv := &stubServer{pingResp: "OK"}
	c := newTestClient(t, srv)

	_, err := c.Me(testCtx(t))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, srv.seenMD().Get(common.PasswordHeaderName))
}

func TestLogin_RemembersCredentials_ForgetDrops(t *testing.T) {
	srv := &stubServer{pingResp: "OK"}
	c := newTestClient(t, srv)
	ctx := testCtx(t)

	u, err := c.Login(ctx, "a@x.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", u.Email)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", me.ID)
	assert.Equal(t, []string{"pw"}, srv.seenMD().Get(common.PasswordHeaderName))

	c.Forget()
	_, err = c.Me(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogin_FailureKeepsNoCredentials(t *testing.T) {
	srv := &stubServer{loginErr: status.Error(codes.Unauthenticated, "bad")}
	c := newTestClient(t, srv)

	_, err := c.Login(testCtx(t), "a@x.io", "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, c.email)
}

func TestRegister_MapsAlreadyExists(t *testing.T) {
	c := newTestClient(t, &stubServer{})
	ctx := testCtx(t)

	u, err := c.Register(ctx, "new@x.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = c.Register(ctx, "taken@x.io", "pw")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestPing(t *testing.T) {
	c := newTestClient(t, &stubServer{pingResp: "OK"})
	assert.NoError(t, c.Ping(testCtx(t)))

	c = newTestClient(t, &stubServer{pingResp: "DEGRADED"})
	assert.ErrorIs(t, c.Ping(testCtx(t)), ErrUnavailable)
}

func TestWithCredentials_ReplacesExisting(t *testing.T) {
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.EmailHeaderName, "old@x.io", "other", "v")
	ctx = withCredentials(ctx, "new@x.io", "pw")

	md, _ := metadata.FromOutgoingContext(ctx)
	assert.Equal(t, []string{"new@x.io"}, md.Get(common.EmailHeaderName))
	assert.Equal(t, []string{"pw"}, md.Get(common.PasswordHeaderName))
	assert.Equal(t, []string{"v"}, md.Get("other"))
}

func TestMapError(t *testing.T) {
	c := &GRPCClient{}
	tests := []struct {
		in   error
		want error
	}{
		{status.Error(codes.Unauthenticated, ""), ErrUnauthorized},
		{status.Error(codes.PermissionDenied, ""), ErrUnauthorized},
		{status.Error(codes.AlreadyExists, ""), ErrAlreadyExists},
		{status.Error(codes.InvalidArgument, ""), ErrInvalidArgument},
		{status.Error(codes.Unavailable, ""), ErrUnavailable},
		{status.Error(codes.DeadlineExceeded, ""), ErrUnavailable},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, c.mapError(tt.in), tt.want, "code %v", status.Code(tt.in))
	}

	assert.NoError(t, c.mapError(nil))

	other := c.mapError(errors.New("weird"))
	assert.ErrorContains(t, other, "rpc error: weird")
}
