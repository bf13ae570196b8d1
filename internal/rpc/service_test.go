package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type stubServer struct {
	UnimplementedLegacyKeeperServer
	expires time.Time
}

func (s *stubServer) VerifyReleaseToken(ctx context.Context, in *ReleaseTokenRequest) (*VerifyReleaseTokenResponse, error) {
	return &VerifyReleaseTokenResponse{
		BeneficiaryName: in.Token,
		TokenExpiresAt:  s.expires,
		Assets:          []Asset{{ID: "a1"}, {ID: "a2", SizeBytes: 4096, ChunkSize: 1 << 20}},
	}, nil
}

func (s *stubServer) RegisterAsset(ctx context.Context, in *RegisterAssetRequest) (*RegisterAssetResponse, error) {
	out := in.Asset
	out.ID = "a-1"
	return &RegisterAssetResponse{Asset: out}, nil
}

func (s *stubServer) RunReleaseCycle(ctx context.Context, _ *RunReleaseCycleRequest) (*RunReleaseCycleResponse, error) {
	return &RunReleaseCycleResponse{ReleasePhase: PhaseSummary{Processed: 1, Results: []VaultResult{{VaultID: "v", Outcome: "released"}}}}, nil
}

func dial(t *testing.T, srv LegacyKeeperServer, opts ...grpc.ServerOption) LegacyKeeperClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterLegacyKeeperServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewLegacyKeeperClient(conn)
}

func TestCodecRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)

	b, err := c.Marshal(&Asset{VaultID: "v", Salt: []byte{1, 2}})
	require.NoError(t, err)
	var got Asset
	require.NoError(t, c.Unmarshal(b, &got))
	assert.Equal(t, []byte{1, 2}, got.Salt)

	// empty request bodies decode to the zero value
	require.NoError(t, c.Unmarshal(nil, &got))
	assert.Equal(t, Asset{}, got)

	_, err = c.Marshal(struct{}{})
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	client := dial(t, &stubServer{})

	resp, err := client.RegisterAsset(context.Background(), &RegisterAssetRequest{
		Asset: Asset{VaultID: "v", Salt: []byte("0123456789abcdef"), Checksum: "ff", Format: "aead-v1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "a-1", resp.Asset.ID)
	assert.Equal(t, []byte("0123456789abcdef"), resp.Asset.Salt)

	sum, err := client.RunReleaseCycle(context.Background(), &RunReleaseCycleRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.ReleasePhase.Processed)
	assert.Equal(t, "released", sum.ReleasePhase.Results[0].Outcome)
}

func TestRoundTrip_Timestamps(t *testing.T) {
	exp := time.Date(2025, 6, 1, 9, 30, 0, 123456789, time.UTC)
	client := dial(t, &stubServer{expires: exp})

	md, err := client.VerifyReleaseToken(context.Background(), &ReleaseTokenRequest{Token: "tok"})
	require.NoError(t, err)
	assert.True(t, md.TokenExpiresAt.Equal(exp), "got %v", md.TokenExpiresAt)
	assert.Equal(t, "tok", md.BeneficiaryName)
	require.Len(t, md.Assets, 2)
	assert.Equal(t, int64(4096), md.Assets[1].SizeBytes)
}

func TestUnimplemented(t *testing.T) {
	client := dial(t, &stubServer{})
	_, err := client.CreateVault(context.Background(), &CreateVaultRequest{})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestInterceptorSeesFullMethod(t *testing.T) {
	var seen string
	icpt := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, h grpc.UnaryHandler) (any, error) {
		seen = info.FullMethod
		return h(ctx, req)
	}
	client := dial(t, &stubServer{}, grpc.ChainUnaryInterceptor(icpt))

	_, err := client.RunReleaseCycle(context.Background(), &RunReleaseCycleRequest{})
	require.NoError(t, err)
	assert.Equal(t, MethodRunReleaseCycle, seen)
}
