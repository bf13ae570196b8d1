package grpc

import (
	"context"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const (
	grantKey   ctxKey = "releaseGrant"
	vaultIDKey ctxKey = "vaultID"
)

var grantProtected = map[string]bool{
	rpc.MethodGetAssetDownload:    true,
	rpc.MethodGetRecoveryMaterial: true,
}

// releaseGrantInterceptor rejects calls to beneficiary download methods that
// do not carry a valid release grant, and puts the grant and its vault id
// into the context for the handler.
func (s *GRPCServer) releaseGrantInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if !grantProtected[info.FullMethod] {
		return handler(ctx, req)
	}

	var grant string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.ReleaseGrantHeaderName); len(values) > 0 {
			grant = values[0]
		}
	}
	if grant == "" {
		return nil, status.Error(codes.Unauthenticated, "missing release grant")
	}

	vaultID, err := s.unlock.Authorize(grant)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	ctx = context.WithValue(ctx, grantKey, grant)
	ctx = context.WithValue(ctx, vaultIDKey, vaultID)
	return handler(ctx, req)
}

func grantFromContext(ctx context.Context) (string, bool) {
	g, ok := ctx.Value(grantKey).(string)
	return g, ok && g != ""
}
