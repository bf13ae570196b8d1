package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      rpc.LegacyKeeperClient

	mu    sync.RWMutex
	grant string
}

func withGrant(ctx context.Context, grant string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.ReleaseGrantHeaderName)
	md.Set(common.ReleaseGrantHeaderName, grant)

	return metadata.NewOutgoingContext(ctx, md)
}

// grantInterceptor attaches the current release grant, if any, and bounds
// every call by the configured timeout.
func (s *GRPCClient) grantInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if g := s.Grant(); g != "" {
		ctx = withGrant(ctx, g)
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewLegacyKeeperClientService(endpointURL string, timeout time.Duration) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {

	conn, err := grpc.NewClient(s.endpointURL, grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithUnaryInterceptor(s.grantInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewLegacyKeeperClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Grant returns the release grant held by the client, or "".
func (s *GRPCClient) Grant() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grant
}

// SetGrant replaces the release grant sent with grant-protected calls.
func (s *GRPCClient) SetGrant(g string) {
	s.mu.Lock()
	s.grant = g
	s.mu.Unlock()
}

func (s *GRPCClient) CreateVault(ctx context.Context, req *rpc.CreateVaultRequest) (*rpc.CreateVaultResponse, error) {
	resp, err := s.client.CreateVault(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

// ConfirmHeartbeat resets the inactivity timer, either by vault id or by the
// signed link token from a warning email.
func (s *GRPCClient) ConfirmHeartbeat(ctx context.Context, vaultID, linkToken string) (string, error) {
	resp, err := s.client.ConfirmHeartbeat(ctx, &rpc.ConfirmHeartbeatRequest{VaultID: vaultID, LinkToken: linkToken})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.VaultID, nil
}

func (s *GRPCClient) RequestUpload(ctx context.Context, vaultID string) (string, string, error) {
	resp, err := s.client.RequestUpload(ctx, &rpc.RequestUploadRequest{VaultID: vaultID})
	if err != nil {
		return "", "", s.mapError(err)
	}
	return resp.StoragePath, resp.URL, nil
}

func (s *GRPCClient) RegisterAsset(ctx context.Context, asset rpc.Asset, replaces string) (*rpc.Asset, error) {
	resp, err := s.client.RegisterAsset(ctx, &rpc.RegisterAssetRequest{Asset: asset, Replaces: replaces})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.Asset, nil
}

func (s *GRPCClient) ListAssets(ctx context.Context, vaultID string) ([]rpc.Asset, error) {
	resp, err := s.client.ListAssets(ctx, &rpc.ListAssetsRequest{VaultID: vaultID})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Assets, nil
}

func (s *GRPCClient) RunReleaseCycle(ctx context.Context) (*rpc.RunReleaseCycleResponse, error) {
	resp, err := s.client.RunReleaseCycle(ctx, &rpc.RunReleaseCycleRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) VerifyReleaseToken(ctx context.Context, token string) (*rpc.VerifyReleaseTokenResponse, error) {
	resp, err := s.client.VerifyReleaseToken(ctx, &rpc.ReleaseTokenRequest{Token: token})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

// ConsumeReleaseToken spends token and keeps the returned grant for the
// download calls that follow.
func (s *GRPCClient) ConsumeReleaseToken(ctx context.Context, token string) (*rpc.ConsumeReleaseTokenResponse, error) {
	resp, err := s.client.ConsumeReleaseToken(ctx, &rpc.ReleaseTokenRequest{Token: token})
	if err != nil {
		return nil, s.mapError(err)
	}
	s.SetGrant(resp.Grant)
	return resp, nil
}

func (s *GRPCClient) GetAssetDownload(ctx context.Context, assetID string) (*rpc.Asset, string, error) {
	resp, err := s.client.GetAssetDownload(ctx, &rpc.GetAssetDownloadRequest{AssetID: assetID})
	if err != nil {
		return nil, "", s.mapError(err)
	}
	return &resp.Asset, resp.URL, nil
}

func (s *GRPCClient) GetRecoveryMaterial(ctx context.Context) (*rpc.GetRecoveryMaterialResponse, error) {
	resp, err := s.client.GetRecoveryMaterial(ctx, &rpc.GetRecoveryMaterialRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		switch st.Message() {
		case common.ErrTokenExpired.Error():
			return common.ErrTokenExpired
		case common.ErrTokenInvalid.Error():
			return common.ErrTokenInvalid
		}
		return ErrUnauthorized
	case codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w", st.Message(), common.ErrInvalidInput)
	case codes.FailedPrecondition:
		return common.ErrVaultReleased
	case codes.DataLoss:
		return common.ErrIntegrity
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
