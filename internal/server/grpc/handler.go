package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

var errMissingCredentials = status.Error(codes.InvalidArgument, "email and password are required")

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {

	if req.GetEmail() == "" || req.GetPassword() == "" {
		return nil, errMissingCredentials
	}

	user, err := s.users.CreateUser(ctx, req.GetEmail(), req.GetPassword())
	if err != nil {
		return nil, s.statusFromError(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", user.ID)
	return &api.RegisterResponse{User: toAPIUser(user)}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {

	if req.GetEmail() == "" || req.GetPassword() == "" {
		return nil, errMissingCredentials
	}

	user, err := s.users.Authenticate(ctx, req.GetEmail(), req.GetPassword())
	if err != nil {
		return nil, s.statusFromError(ctx, err)
	}

	return &api.LoginResponse{User: toAPIUser(user)}, nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *api.MeRequest) (*api.MeResponse, error) {

	user, err := s.users.ResolveCurrentUser(userFromContext(ctx))
	if err != nil {
		return nil, s.statusFromError(ctx, err)
	}

	return &api.MeResponse{User: toAPIUser(user)}, nil
}

func (s *GRPCServer) Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("OK"), nil
}

// statusFromError maps service errors onto gRPC codes. Unexpected errors are
// logged and reported as Internal without detail.
func (s *GRPCServer) statusFromError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorUnauthenticated):
		return status.Error(codes.Unauthenticated, common.ErrorUnauthenticated.Error())
	case errors.Is(err, common.ErrorInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.ErrorInvalidCredentials.Error())
	case errors.Is(err, common.ErrConstraintViolation):
		return status.Error(codes.AlreadyExists, "email already registered")
	default:
		s.logger.Error(ctx, err.Error())
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}
