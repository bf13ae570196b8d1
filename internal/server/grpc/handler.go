package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/rpc"
	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
	"github.com/dmitrijs2005/legacykeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC codes. Anything unrecognised is
// logged and reported as a bare Internal so no detail leaks to callers.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrInvalidStoragePath):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrTokenInvalid):
		return status.Error(codes.Unauthenticated, common.ErrTokenInvalid.Error())
	case errors.Is(err, common.ErrVaultReleased):
		return status.Error(codes.FailedPrecondition, common.ErrVaultReleased.Error())
	case errors.Is(err, common.ErrIntegrity):
		return status.Error(codes.DataLoss, common.ErrIntegrity.Error())
	}
	s.logger.Error(ctx, "request failed", "method", method, "error", err)
	return status.Error(codes.Internal, common.ErrorInternal.Error())
}

func (s *GRPCServer) CreateVault(ctx context.Context, req *rpc.CreateVaultRequest) (*rpc.CreateVaultResponse, error) {

	in := services.CreateVaultInput{
		UserID:                 req.UserID,
		OwnerEmail:             req.OwnerEmail,
		Language:               req.Language,
		EncryptionHint:         req.EncryptionHint,
		HeartbeatFrequencyDays: req.HeartbeatFrequencyDays,
		GracePeriodDays:        req.GracePeriodDays,
		PhysicalDelivery:       req.PhysicalDelivery,
		RecoveryCiphertext:     req.RecoveryCiphertext,
		RecoverySalt:           req.RecoverySalt,
		RecoveryNonce:          req.RecoveryNonce,
	}
	for _, b := range req.Beneficiaries {
		in.Beneficiaries = append(in.Beneficiaries, services.BeneficiaryInput{
			Name:     b.Name,
			Email:    b.Email,
			Language: b.Language,
			Address:  models.Address(b.Address),
		})
	}

	v, bens, err := s.vaults.CreateVault(ctx, in)
	if err != nil {
		return nil, s.toStatus(ctx, "CreateVault", err)
	}

	resp := &rpc.CreateVaultResponse{VaultID: v.ID, Status: string(v.Status)}
	for _, b := range bens {
		resp.Beneficiaries = append(resp.Beneficiaries, rpc.Beneficiary{
			ID:       b.ID,
			Name:     b.Name,
			Email:    b.Email,
			Language: b.Language,
			Address:  rpc.Address(b.Address),
			Status:   string(b.Status),
		})
	}
	return resp, nil
}

func (s *GRPCServer) ConfirmHeartbeat(ctx context.Context, req *rpc.ConfirmHeartbeatRequest) (*rpc.ConfirmHeartbeatResponse, error) {

	if req.LinkToken != "" {
		vaultID, err := s.vaults.ConfirmHeartbeatLink(ctx, req.LinkToken)
		if err != nil {
			return nil, s.toStatus(ctx, "ConfirmHeartbeat", err)
		}
		return &rpc.ConfirmHeartbeatResponse{VaultID: vaultID}, nil
	}

	if req.VaultID == "" {
		return nil, status.Error(codes.InvalidArgument, "vault id or link token required")
	}
	if err := s.vaults.ConfirmHeartbeat(ctx, req.VaultID); err != nil {
		return nil, s.toStatus(ctx, "ConfirmHeartbeat", err)
	}
	return &rpc.ConfirmHeartbeatResponse{VaultID: req.VaultID}, nil
}

func (s *GRPCServer) RequestUpload(ctx context.Context, req *rpc.RequestUploadRequest) (*rpc.RequestUploadResponse, error) {
	target, err := s.vaults.RequestUpload(ctx, req.VaultID)
	if err != nil {
		return nil, s.toStatus(ctx, "RequestUpload", err)
	}
	return &rpc.RequestUploadResponse{StoragePath: target.StoragePath, URL: target.URL}, nil
}

func assetToModel(a rpc.Asset) *models.EncryptedAsset {
	return &models.EncryptedAsset{
		VaultID:     a.VaultID,
		StoragePath: a.StoragePath,
		Salt:        a.Salt,
		Nonce:       a.Nonce,
		Checksum:    a.Checksum,
		SizeBytes:   a.SizeBytes,
		Category:    a.Category,
		Format:      a.Format,
		ChunkSize:   a.ChunkSize,
	}
}

func assetFromModel(a *models.EncryptedAsset) rpc.Asset {
	return rpc.Asset{
		ID:          a.ID,
		VaultID:     a.VaultID,
		StoragePath: a.StoragePath,
		Salt:        a.Salt,
		Nonce:       a.Nonce,
		Checksum:    a.Checksum,
		SizeBytes:   a.SizeBytes,
		Category:    a.Category,
		Format:      a.Format,
		ChunkSize:   a.ChunkSize,
	}
}

func assetsFromModels(in []*models.EncryptedAsset) []rpc.Asset {
	out := make([]rpc.Asset, 0, len(in))
	for _, a := range in {
		out = append(out, assetFromModel(a))
	}
	return out
}

func (s *GRPCServer) RegisterAsset(ctx context.Context, req *rpc.RegisterAssetRequest) (*rpc.RegisterAssetResponse, error) {
	a, err := s.vaults.RegisterAsset(ctx, assetToModel(req.Asset), req.Replaces)
	if err != nil {
		return nil, s.toStatus(ctx, "RegisterAsset", err)
	}
	return &rpc.RegisterAssetResponse{Asset: assetFromModel(a)}, nil
}

func (s *GRPCServer) ListAssets(ctx context.Context, req *rpc.ListAssetsRequest) (*rpc.ListAssetsResponse, error) {
	list, err := s.vaults.ListAssets(ctx, req.VaultID)
	if err != nil {
		return nil, s.toStatus(ctx, "ListAssets", err)
	}
	return &rpc.ListAssetsResponse{Assets: assetsFromModels(list)}, nil
}

func phaseToRPC(p services.PhaseSummary) rpc.PhaseSummary {
	out := rpc.PhaseSummary{Processed: p.Processed, Results: make([]rpc.VaultResult, 0, len(p.Results))}
	for _, r := range p.Results {
		vr := rpc.VaultResult{VaultID: r.VaultID, Outcome: r.Outcome, Error: r.Error}
		for _, b := range r.Beneficiaries {
			vr.Beneficiaries = append(vr.Beneficiaries, rpc.BeneficiaryResult(b))
		}
		out.Results = append(out.Results, vr)
	}
	return out
}

func (s *GRPCServer) RunReleaseCycle(ctx context.Context, _ *rpc.RunReleaseCycleRequest) (*rpc.RunReleaseCycleResponse, error) {
	sum, err := s.release.Run(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, "RunReleaseCycle", err)
	}
	return &rpc.RunReleaseCycleResponse{
		WarningPhase: phaseToRPC(sum.WarningPhase),
		ReleasePhase: phaseToRPC(sum.ReleasePhase),
	}, nil
}

func (s *GRPCServer) VerifyReleaseToken(ctx context.Context, req *rpc.ReleaseTokenRequest) (*rpc.VerifyReleaseTokenResponse, error) {
	md, err := s.unlock.Verify(ctx, req.Token)
	if err != nil {
		return nil, s.toStatus(ctx, "VerifyReleaseToken", err)
	}
	return &rpc.VerifyReleaseTokenResponse{
		VaultID:         md.VaultID,
		BeneficiaryName: md.BeneficiaryName,
		EncryptionHint:  md.EncryptionHint,
		TokenExpiresAt:  md.TokenExpiresAt,
		Assets:          assetsFromModels(md.Assets),
	}, nil
}

func (s *GRPCServer) ConsumeReleaseToken(ctx context.Context, req *rpc.ReleaseTokenRequest) (*rpc.ConsumeReleaseTokenResponse, error) {
	g, err := s.unlock.Consume(ctx, req.Token)
	if err != nil {
		return nil, s.toStatus(ctx, "ConsumeReleaseToken", err)
	}
	return &rpc.ConsumeReleaseTokenResponse{Grant: g.Token, VaultID: g.VaultID, ExpiresAt: g.ExpiresAt}, nil
}

func (s *GRPCServer) GetAssetDownload(ctx context.Context, req *rpc.GetAssetDownloadRequest) (*rpc.GetAssetDownloadResponse, error) {
	grant, ok := grantFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing release grant")
	}
	dl, err := s.unlock.AssetDownload(ctx, grant, req.AssetID)
	if err != nil {
		return nil, s.toStatus(ctx, "GetAssetDownload", err)
	}
	return &rpc.GetAssetDownloadResponse{Asset: assetFromModel(dl.Asset), URL: dl.URL}, nil
}

func (s *GRPCServer) GetRecoveryMaterial(ctx context.Context, _ *rpc.GetRecoveryMaterialRequest) (*rpc.GetRecoveryMaterialResponse, error) {
	grant, ok := grantFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing release grant")
	}
	rm, err := s.unlock.RecoveryMaterial(ctx, grant)
	if err != nil {
		return nil, s.toStatus(ctx, "GetRecoveryMaterial", err)
	}
	return &rpc.GetRecoveryMaterialResponse{
		VaultID:        rm.VaultID,
		Ciphertext:     rm.Ciphertext,
		Salt:           rm.Salt,
		Nonce:          rm.Nonce,
		EncryptionHint: rm.EncryptionHint,
	}, nil
}
