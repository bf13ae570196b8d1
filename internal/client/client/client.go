package client

import (
	"context"

	"github.com/dmitrijs2005/legacykeeper/internal/rpc"
)

// Client is the API contract the pipeline and unlock flows depend on.
type Client interface {
	Close() error
	CreateVault(ctx context.Context, req *rpc.CreateVaultRequest) (*rpc.CreateVaultResponse, error)
	ConfirmHeartbeat(ctx context.Context, vaultID, linkToken string) (string, error)
	RequestUpload(ctx context.Context, vaultID string) (storagePath, url string, err error)
	RegisterAsset(ctx context.Context, asset rpc.Asset, replaces string) (*rpc.Asset, error)
	ListAssets(ctx context.Context, vaultID string) ([]rpc.Asset, error)
	RunReleaseCycle(ctx context.Context) (*rpc.RunReleaseCycleResponse, error)
	VerifyReleaseToken(ctx context.Context, token string) (*rpc.VerifyReleaseTokenResponse, error)
	ConsumeReleaseToken(ctx context.Context, token string) (*rpc.ConsumeReleaseTokenResponse, error)
	GetAssetDownload(ctx context.Context, assetID string) (*rpc.Asset, string, error)
	GetRecoveryMaterial(ctx context.Context) (*rpc.GetRecoveryMaterialResponse, error)
}
