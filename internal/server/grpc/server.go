package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/legacykeeper/internal/logging"
	"github.com/dmitrijs2005/legacykeeper/internal/rpc"
	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
	"github.com/dmitrijs2005/legacykeeper/internal/server/services"
	"google.golang.org/grpc"
)

type vaultSvc interface {
	CreateVault(ctx context.Context, in services.CreateVaultInput) (*models.Vault, []*models.Beneficiary, error)
	ConfirmHeartbeat(ctx context.Context, vaultID string) error
	ConfirmHeartbeatLink(ctx context.Context, token string) (string, error)
	RequestUpload(ctx context.Context, vaultID string) (*services.UploadTarget, error)
	RegisterAsset(ctx context.Context, a *models.EncryptedAsset, replaces string) (*models.EncryptedAsset, error)
	ListAssets(ctx context.Context, vaultID string) ([]*models.EncryptedAsset, error)
}

type releaseSvc interface {
	Run(ctx context.Context) (*services.Summary, error)
}

type unlockSvc interface {
	Verify(ctx context.Context, token string) (*services.VaultMetadata, error)
	Consume(ctx context.Context, token string) (*services.Grant, error)
	Authorize(grant string) (string, error)
	AssetDownload(ctx context.Context, grant, assetID string) (*services.AssetDownload, error)
	RecoveryMaterial(ctx context.Context, grant string) (*services.RecoveryMaterial, error)
}

type GRPCServer struct {
	rpc.UnimplementedLegacyKeeperServer
	address string
	vaults  vaultSvc
	release releaseSvc
	unlock  unlockSvc
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, vs vaultSvc, rs releaseSvc, us unlockSvc) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		vaults:  vs,
		release: rs,
		unlock:  us,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.releaseGrantInterceptor))
	rpc.RegisterLegacyKeeperServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
