package client

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      api.AuthServiceClient

	mu       sync.RWMutex
	email    string
	password string
}

func withCredentials(ctx context.Context, email, password string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.EmailHeaderName, email)
	md.Set(common.PasswordHeaderName, password)

	return metadata.NewOutgoingContext(ctx, md)
}

// credentialsInterceptor attaches the remembered credentials, if any.
func (s *GRPCClient) credentialsInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	s.mu.RLock()
	email, password := s.email, s.password
	s.mu.RUnlock()

	if email != "" {
		ctx = withCredentials(ctx, email, password)
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewGophAuthClient(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// InitGRPCClient creates the connection. Extra dial options are appended to
// the defaults (tests use them to dial over bufconn).
func (s *GRPCClient) InitGRPCClient(extra ...grpc.DialOption) error {

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.credentialsInterceptor),
		api.WithCodec(),
	}

	conn, err := grpc.NewClient(s.endpointURL, append(opts, extra...)...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewAuthServiceClient(conn)
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, email, password string) (*models.User, error) {

	resp, err := s.client.Register(ctx, &api.RegisterRequest{Email: email, Password: password})
	if err != nil {
		return nil, s.mapError(err)
	}

	return fromAPIUser(resp.User), nil
}

// Login checks the credentials with the server and remembers them for later
// calls.
func (s *GRPCClient) Login(ctx context.Context, email, password string) (*models.User, error) {

	resp, err := s.client.Login(ctx, &api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, s.mapError(err)
	}

	s.mu.Lock()
	s.email, s.password = email, password
	s.mu.Unlock()

	return fromAPIUser(resp.User), nil
}

func (s *GRPCClient) Me(ctx context.Context) (*models.User, error) {

	resp, err := s.client.Me(ctx, &api.MeRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}

	return fromAPIUser(resp.User), nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {

	resp, err := s.client.Ping(ctx, &emptypb.Empty{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.GetValue() != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) Forget() {
	s.mu.Lock()
	s.email, s.password = "", ""
	s.mu.Unlock()
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.InvalidArgument:
		return ErrInvalidArgument
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func fromAPIUser(u *api.User) *models.User {
	if u == nil {
		return nil
	}
	return &models.User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}
