package checksum

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum_KnownVector(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Sum(nil))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", Sum([]byte("abc")))
}

func TestSumReader_MatchesSum(t *testing.T) {
	data := bytes.Repeat([]byte("legacy"), 10000)

	got, n, err := SumReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, Sum(data), got)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestSumReader_PropagatesError(t *testing.T) {
	_, _, err := SumReader(failingReader{})
	require.Error(t, err)
}

func TestWriter_InsideMultiWriter(t *testing.T) {
	var dst bytes.Buffer
	w := NewWriter()

	_, err := io.Copy(io.MultiWriter(&dst, w), strings.NewReader("hello"))
	require.NoError(t, err)

	assert.Equal(t, "hello", dst.String())
	assert.Equal(t, Sum([]byte("hello")), w.Hex())
	assert.Equal(t, int64(5), w.Size())
}

func TestEqual(t *testing.T) {
	s := Sum([]byte("x"))
	assert.True(t, Equal(s, strings.ToUpper(s)))
	assert.True(t, Equal(" "+s, s))
	assert.False(t, Equal(s, Sum([]byte("y"))))
	assert.False(t, Equal(s, ""))
}
