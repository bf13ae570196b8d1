package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "legacykeeper.v1.LegacyKeeper"

// Full method names, as seen by interceptors.
const (
	MethodCreateVault         = "/" + ServiceName + "/CreateVault"
	MethodConfirmHeartbeat    = "/" + ServiceName + "/ConfirmHeartbeat"
	MethodRequestUpload       = "/" + ServiceName + "/RequestUpload"
	MethodRegisterAsset       = "/" + ServiceName + "/RegisterAsset"
	MethodListAssets          = "/" + ServiceName + "/ListAssets"
	MethodRunReleaseCycle     = "/" + ServiceName + "/RunReleaseCycle"
	MethodVerifyReleaseToken  = "/" + ServiceName + "/VerifyReleaseToken"
	MethodConsumeReleaseToken = "/" + ServiceName + "/ConsumeReleaseToken"
	MethodGetAssetDownload    = "/" + ServiceName + "/GetAssetDownload"
	MethodGetRecoveryMaterial = "/" + ServiceName + "/GetRecoveryMaterial"
)

// LegacyKeeperServer is implemented by the server side.
type LegacyKeeperServer interface {
	CreateVault(context.Context, *CreateVaultRequest) (*CreateVaultResponse, error)
	ConfirmHeartbeat(context.Context, *ConfirmHeartbeatRequest) (*ConfirmHeartbeatResponse, error)
	RequestUpload(context.Context, *RequestUploadRequest) (*RequestUploadResponse, error)
	RegisterAsset(context.Context, *RegisterAssetRequest) (*RegisterAssetResponse, error)
	ListAssets(context.Context, *ListAssetsRequest) (*ListAssetsResponse, error)
	RunReleaseCycle(context.Context, *RunReleaseCycleRequest) (*RunReleaseCycleResponse, error)
	VerifyReleaseToken(context.Context, *ReleaseTokenRequest) (*VerifyReleaseTokenResponse, error)
	ConsumeReleaseToken(context.Context, *ReleaseTokenRequest) (*ConsumeReleaseTokenResponse, error)
	GetAssetDownload(context.Context, *GetAssetDownloadRequest) (*GetAssetDownloadResponse, error)
	GetRecoveryMaterial(context.Context, *GetRecoveryMaterialRequest) (*GetRecoveryMaterialResponse, error)
}

// UnimplementedLegacyKeeperServer can be embedded to stay forward compatible.
type UnimplementedLegacyKeeperServer struct{}

func (UnimplementedLegacyKeeperServer) CreateVault(context.Context, *CreateVaultRequest) (*CreateVaultResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateVault not implemented")
}
func (UnimplementedLegacyKeeperServer) ConfirmHeartbeat(context.Context, *ConfirmHeartbeatRequest) (*ConfirmHeartbeatResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ConfirmHeartbeat not implemented")
}
func (UnimplementedLegacyKeeperServer) RequestUpload(context.Context, *RequestUploadRequest) (*RequestUploadResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RequestUpload not implemented")
}
func (UnimplementedLegacyKeeperServer) RegisterAsset(context.Context, *RegisterAssetRequest) (*RegisterAssetResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RegisterAsset not implemented")
}
func (UnimplementedLegacyKeeperServer) ListAssets(context.Context, *ListAssetsRequest) (*ListAssetsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListAssets not implemented")
}
func (UnimplementedLegacyKeeperServer) RunReleaseCycle(context.Context, *RunReleaseCycleRequest) (*RunReleaseCycleResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RunReleaseCycle not implemented")
}
func (UnimplementedLegacyKeeperServer) VerifyReleaseToken(context.Context, *ReleaseTokenRequest) (*VerifyReleaseTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method VerifyReleaseToken not implemented")
}
func (UnimplementedLegacyKeeperServer) ConsumeReleaseToken(context.Context, *ReleaseTokenRequest) (*ConsumeReleaseTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ConsumeReleaseToken not implemented")
}
func (UnimplementedLegacyKeeperServer) GetAssetDownload(context.Context, *GetAssetDownloadRequest) (*GetAssetDownloadResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAssetDownload not implemented")
}
func (UnimplementedLegacyKeeperServer) GetRecoveryMaterial(context.Context, *GetRecoveryMaterialRequest) (*GetRecoveryMaterialResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetRecoveryMaterial not implemented")
}

func RegisterLegacyKeeperServer(s grpc.ServiceRegistrar, srv LegacyKeeperServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts a typed method to grpc.MethodHandler.
func unaryHandler[Req any, Resp any](method string, call func(LegacyKeeperServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LegacyKeeperServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LegacyKeeperServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LegacyKeeperServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateVault", Handler: unaryHandler(MethodCreateVault, LegacyKeeperServer.CreateVault)},
		{MethodName: "ConfirmHeartbeat", Handler: unaryHandler(MethodConfirmHeartbeat, LegacyKeeperServer.ConfirmHeartbeat)},
		{MethodName: "RequestUpload", Handler: unaryHandler(MethodRequestUpload, LegacyKeeperServer.RequestUpload)},
		{MethodName: "RegisterAsset", Handler: unaryHandler(MethodRegisterAsset, LegacyKeeperServer.RegisterAsset)},
		{MethodName: "ListAssets", Handler: unaryHandler(MethodListAssets, LegacyKeeperServer.ListAssets)},
		{MethodName: "RunReleaseCycle", Handler: unaryHandler(MethodRunReleaseCycle, LegacyKeeperServer.RunReleaseCycle)},
		{MethodName: "VerifyReleaseToken", Handler: unaryHandler(MethodVerifyReleaseToken, LegacyKeeperServer.VerifyReleaseToken)},
		{MethodName: "ConsumeReleaseToken", Handler: unaryHandler(MethodConsumeReleaseToken, LegacyKeeperServer.ConsumeReleaseToken)},
		{MethodName: "GetAssetDownload", Handler: unaryHandler(MethodGetAssetDownload, LegacyKeeperServer.GetAssetDownload)},
		{MethodName: "GetRecoveryMaterial", Handler: unaryHandler(MethodGetRecoveryMaterial, LegacyKeeperServer.GetRecoveryMaterial)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "legacykeeper.proto",
}

// LegacyKeeperClient is the typed client side of the service.
type LegacyKeeperClient interface {
	CreateVault(ctx context.Context, in *CreateVaultRequest, opts ...grpc.CallOption) (*CreateVaultResponse, error)
	ConfirmHeartbeat(ctx context.Context, in *ConfirmHeartbeatRequest, opts ...grpc.CallOption) (*ConfirmHeartbeatResponse, error)
	RequestUpload(ctx context.Context, in *RequestUploadRequest, opts ...grpc.CallOption) (*RequestUploadResponse, error)
	RegisterAsset(ctx context.Context, in *RegisterAssetRequest, opts ...grpc.CallOption) (*RegisterAssetResponse, error)
	ListAssets(ctx context.Context, in *ListAssetsRequest, opts ...grpc.CallOption) (*ListAssetsResponse, error)
	RunReleaseCycle(ctx context.Context, in *RunReleaseCycleRequest, opts ...grpc.CallOption) (*RunReleaseCycleResponse, error)
	VerifyReleaseToken(ctx context.Context, in *ReleaseTokenRequest, opts ...grpc.CallOption) (*VerifyReleaseTokenResponse, error)
	ConsumeReleaseToken(ctx context.Context, in *ReleaseTokenRequest, opts ...grpc.CallOption) (*ConsumeReleaseTokenResponse, error)
	GetAssetDownload(ctx context.Context, in *GetAssetDownloadRequest, opts ...grpc.CallOption) (*GetAssetDownloadResponse, error)
	GetRecoveryMaterial(ctx context.Context, in *GetRecoveryMaterialRequest, opts ...grpc.CallOption) (*GetRecoveryMaterialResponse, error)
}

type legacyKeeperClient struct {
	cc grpc.ClientConnInterface
}

func NewLegacyKeeperClient(cc grpc.ClientConnInterface) LegacyKeeperClient {
	return &legacyKeeperClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *legacyKeeperClient) CreateVault(ctx context.Context, in *CreateVaultRequest, opts ...grpc.CallOption) (*CreateVaultResponse, error) {
	return invoke[CreateVaultResponse](ctx, c.cc, MethodCreateVault, in, opts)
}

func (c *legacyKeeperClient) ConfirmHeartbeat(ctx context.Context, in *ConfirmHeartbeatRequest, opts ...grpc.CallOption) (*ConfirmHeartbeatResponse, error) {
	return invoke[ConfirmHeartbeatResponse](ctx, c.cc, MethodConfirmHeartbeat, in, opts)
}

func (c *legacyKeeperClient) RequestUpload(ctx context.Context, in *RequestUploadRequest, opts ...grpc.CallOption) (*RequestUploadResponse, error) {
	return invoke[RequestUploadResponse](ctx, c.cc, MethodRequestUpload, in, opts)
}

func (c *legacyKeeperClient) RegisterAsset(ctx context.Context, in *RegisterAssetRequest, opts ...grpc.CallOption) (*RegisterAssetResponse, error) {
	return invoke[RegisterAssetResponse](ctx, c.cc, MethodRegisterAsset, in, opts)
}

func (c *legacyKeeperClient) ListAssets(ctx context.Context, in *ListAssetsRequest, opts ...grpc.CallOption) (*ListAssetsResponse, error) {
	return invoke[ListAssetsResponse](ctx, c.cc, MethodListAssets, in, opts)
}

func (c *legacyKeeperClient) RunReleaseCycle(ctx context.Context, in *RunReleaseCycleRequest, opts ...grpc.CallOption) (*RunReleaseCycleResponse, error) {
	return invoke[RunReleaseCycleResponse](ctx, c.cc, MethodRunReleaseCycle, in, opts)
}

func (c *legacyKeeperClient) VerifyReleaseToken(ctx context.Context, in *ReleaseTokenRequest, opts ...grpc.CallOption) (*VerifyReleaseTokenResponse, error) {
	return invoke[VerifyReleaseTokenResponse](ctx, c.cc, MethodVerifyReleaseToken, in, opts)
}

func (c *legacyKeeperClient) ConsumeReleaseToken(ctx context.Context, in *ReleaseTokenRequest, opts ...grpc.CallOption) (*ConsumeReleaseTokenResponse, error) {
	return invoke[ConsumeReleaseTokenResponse](ctx, c.cc, MethodConsumeReleaseToken, in, opts)
}

func (c *legacyKeeperClient) GetAssetDownload(ctx context.Context, in *GetAssetDownloadRequest, opts ...grpc.CallOption) (*GetAssetDownloadResponse, error) {
	return invoke[GetAssetDownloadResponse](ctx, c.cc, MethodGetAssetDownload, in, opts)
}

func (c *legacyKeeperClient) GetRecoveryMaterial(ctx context.Context, in *GetRecoveryMaterialRequest, opts ...grpc.CallOption) (*GetRecoveryMaterialResponse, error) {
	return invoke[GetRecoveryMaterialResponse](ctx, c.cc, MethodGetRecoveryMaterial, in, opts)
}
