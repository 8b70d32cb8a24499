package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", nopLogger{}, (*services.UserService)(nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", nopLogger{}, (*services.UserService)(nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}

// startInMemory serves a real UserService over bufconn and returns a client.
func startInMemory(t *testing.T) api.AuthServiceClient {
	t.Helper()

	h, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	us := services.NewUserService(nil, repomanager.NewInMemoryRepositoryManager(), h, nopLogger{})

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = NewGRPCServer("", nopLogger{}, us).Serve(ctx, lis)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		api.WithCodec(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return api.NewAuthServiceClient(conn)
}

func withCreds(ctx context.Context, email, password string) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		common.EmailHeaderName, email,
		common.PasswordHeaderName, password,
	)
}

func TestEndToEnd_RegisterLoginMe(t *testing.T) {
	c := startInMemory(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pong, err := c.Ping(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "OK", pong.GetValue())

	reg, err := c.Register(ctx, &api.RegisterRequest{Email: "a@x.io", Password: "secret1"})
	require.NoError(t, err)
	require.NotNil(t, reg.User)
	assert.NotEmpty(t, reg.User.ID)
	assert.False(t, reg.User.CreatedAt.IsZero())

	_, err = c.Register(ctx, &api.RegisterRequest{Email: "a@x.io", Password: "other"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	login, err := c.Login(ctx, &api.LoginRequest{Email: "a@x.io", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	_, err = c.Login(ctx, &api.LoginRequest{Email: "a@x.io", Password: "wrong"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	me, err := c.Me(withCreds(ctx, "a@x.io", "secret1"), &api.MeRequest{})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, me.User.ID)
	assert.Equal(t, "a@x.io", me.User.Email)
}

func TestEndToEnd_MeWithoutIdentity(t *testing.T) {
	c := startInMemory(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.Me(ctx, &api.MeRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = c.Me(withCreds(ctx, "ghost@x.io", "pw"), &api.MeRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
