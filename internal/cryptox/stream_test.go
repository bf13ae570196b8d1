package cryptox

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/legacykeeper/internal/checksum"
	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealStream_MatchesSealSegments(t *testing.T) {
	aead, err := newGCM(bytes.Repeat([]byte{2}, KeySize))
	require.NoError(t, err)
	nonce := bytes.Repeat([]byte{8}, NonceSize)

	for _, size := range []int{0, 1, 99, 100, 101, 1000} {
		plaintext := bytes.Repeat([]byte{0x5A}, size)

		var out bytes.Buffer
		res, err := sealStream(context.Background(), aead, nonce, bytes.NewReader(plaintext), &out, StreamOptions{ChunkSize: 100})
		require.NoError(t, err)

		want := sealSegments(aead, nonce, plaintext, 100)
		assert.Equal(t, want, out.Bytes(), "size=%d", size)
		assert.Equal(t, checksum.Sum(want), res.Checksum)
		assert.Equal(t, int64(size), res.PlainSize)
		assert.Equal(t, int64(len(want)), res.CipherSize)
	}
}

func TestEncryptDecryptStream_RoundTrip(t *testing.T) {
	plaintext := make([]byte, 2500)
	for i := range plaintext {
		plaintext[i] = byte(i)
	}

	var ct bytes.Buffer
	res, err := EncryptStream(context.Background(), bytes.NewReader(plaintext), &ct, "Test123456!", StreamOptions{ChunkSize: 1024})
	require.NoError(t, err)
	assert.Equal(t, FormatSegmented, res.Format)
	assert.Equal(t, 1024, res.ChunkSize)
	assert.Equal(t, int64(2500+3*TagSize), res.CipherSize)

	var pt bytes.Buffer
	err = DecryptStream(context.Background(), bytes.NewReader(ct.Bytes()), &pt, "Test123456!", res.Salt, res.Nonce, StreamOptions{ChunkSize: 1024, Total: res.CipherSize})
	require.NoError(t, err)
	assert.Equal(t, plaintext, pt.Bytes())
}

func TestEncryptStream_ReportsProgress(t *testing.T) {
	var got []Progress
	opts := StreamOptions{
		ChunkSize:  10,
		Total:      25,
		OnProgress: func(p Progress) { got = append(got, p) },
	}

	_, err := EncryptStream(context.Background(), bytes.NewReader(make([]byte, 25)), &bytes.Buffer{}, "pw", opts)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, Progress{Loaded: 10, Total: 25, Percentage: 40}, got[0])
	assert.Equal(t, Progress{Loaded: 20, Total: 25, Percentage: 80}, got[1])
	assert.Equal(t, Progress{Loaded: 25, Total: 25, Percentage: 100}, got[2])
}

func TestEncryptStream_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := EncryptStream(ctx, bytes.NewReader([]byte("data")), &bytes.Buffer{}, "pw", StreamOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecryptStream_FailsClosed(t *testing.T) {
	var ct bytes.Buffer
	res, err := EncryptStream(context.Background(), bytes.NewReader(bytes.Repeat([]byte("q"), 300)), &ct, "pw", StreamOptions{ChunkSize: 100})
	require.NoError(t, err)

	tests := []struct {
		name     string
		data     []byte
		password string
		chunk    int
	}{
		{name: "wrong password", data: ct.Bytes(), password: "bad", chunk: 100},
		{name: "flipped byte in last chunk", data: flip(ct.Bytes(), ct.Len()-1), password: "pw", chunk: 100},
		{name: "wrong chunk size", data: ct.Bytes(), password: "pw", chunk: 50},
		{name: "empty", data: nil, password: "pw", chunk: 100},
		{name: "trailing fragment", data: append(append([]byte(nil), ct.Bytes()...), 1, 2, 3), password: "pw", chunk: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DecryptStream(context.Background(), bytes.NewReader(tt.data), &bytes.Buffer{}, tt.password, res.Salt, res.Nonce, StreamOptions{ChunkSize: tt.chunk, Total: res.CipherSize})
			assert.True(t, errors.Is(err, common.ErrDecryption), "got %v", err)
		})
	}
}

func TestDecryptStream_TruncatedAtChunkBoundary(t *testing.T) {
	var ct bytes.Buffer
	res, err := EncryptStream(context.Background(), bytes.NewReader(bytes.Repeat([]byte("r"), 192)), &ct, "pw", StreamOptions{ChunkSize: 64})
	require.NoError(t, err)
	require.Equal(t, int64(3*(64+TagSize)), res.CipherSize)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "two of three chunks", data: ct.Bytes()[:2*(64+TagSize)]},
		{name: "one of three chunks", data: ct.Bytes()[:64+TagSize]},
		{name: "extra whole chunk", data: append(append([]byte(nil), ct.Bytes()...), ct.Bytes()[:64+TagSize]...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DecryptStream(context.Background(), bytes.NewReader(tt.data), &bytes.Buffer{}, "pw", res.Salt, res.Nonce,
				StreamOptions{ChunkSize: 64, Total: res.CipherSize})
			assert.ErrorIs(t, err, common.ErrDecryption)
		})
	}
}

func TestDecryptStream_RequiresExpectedSize(t *testing.T) {
	var ct bytes.Buffer
	res, err := EncryptStream(context.Background(), bytes.NewReader([]byte("data")), &ct, "pw", StreamOptions{ChunkSize: 64})
	require.NoError(t, err)

	err = DecryptStream(context.Background(), bytes.NewReader(ct.Bytes()), &bytes.Buffer{}, "pw", res.Salt, res.Nonce, StreamOptions{ChunkSize: 64})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func flip(b []byte, i int) []byte {
	c := append([]byte(nil), b...)
	c[i] ^= 0xFF
	return c
}
