package grpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type ctxKey string

const userKey ctxKey = "user"

func withUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// userFromContext returns the identity attached by credentialsInterceptor,
// or nil.
func userFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

func firstValue(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

// credentialsInterceptor resolves the caller of Me from the email/password
// metadata pair. Absent or wrong credentials leave the context without an
// identity; Me then reports Unauthenticated.
func (s *GRPCServer) credentialsInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if info.FullMethod == api.AuthService_Me_FullMethodName {

		var email, password string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			email = firstValue(md, common.EmailHeaderName)
			password = firstValue(md, common.PasswordHeaderName)
		}

		if email != "" && password != "" {
			user, err := s.users.Authenticate(ctx, email, password)
			switch {
			case err == nil:
				ctx = withUser(ctx, user)
			case errors.Is(err, common.ErrorInvalidCredentials):
				s.logger.Debug(ctx, "rejected credentials", "method", info.FullMethod)
			default:
				s.logger.Error(ctx, err.Error())
				return nil, status.Error(codes.Internal, common.ErrorInternal.Error())
			}
		}
	}

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "rpc",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}
