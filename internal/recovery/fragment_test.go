package recovery

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
)

func newPhrase(t *testing.T) string {
	t.Helper()
	entropy, err := bip39.NewEntropy(256)
	require.NoError(t, err)
	m, err := bip39.NewMnemonic(entropy)
	require.NoError(t, err)
	return m
}

func TestMergeSplit_Idempotent(t *testing.T) {
	for i := 0; i < 20; i++ {
		m := newPhrase(t)
		a, b, err := SplitFragments(m)
		require.NoError(t, err)

		res := MergeFragments(a.String(), b.String())
		assert.True(t, res.Valid)
		assert.Empty(t, res.Errors)
		assert.Equal(t, m, res.Mnemonic)
	}
}

func TestSplitFragments_RejectsInvalid(t *testing.T) {
	_, _, err := SplitFragments("abandon abandon")
	assert.ErrorIs(t, err, common.ErrInvalidMnemonic)
}

func TestMergeFragments_AlteredOrder(t *testing.T) {
	checked := 0
	for checked < 5 {
		m := newPhrase(t)
		words := strings.Fields(m)
		words[0], words[1] = words[1], words[0]
		altered := strings.Join(words, " ")
		if words[0] == words[1] || bip39.IsMnemonicValid(altered) {
			continue
		}
		checked++

		res := MergeFragments(strings.Join(words[:12], " "), strings.Join(words[12:], " "))
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, CodeChecksum, res.Errors[0].Code)
		assert.Empty(t, res.Mnemonic)
	}
}

func TestMergeFragments_SwappedFragments(t *testing.T) {
	for {
		a, b, err := SplitFragments(newPhrase(t))
		require.NoError(t, err)
		if bip39.IsMnemonicValid(b.String() + " " + a.String()) {
			continue
		}
		res := MergeFragments(b.String(), a.String())
		assert.False(t, res.Valid)
		assert.NotEmpty(t, res.Errors)
		return
	}
}

func TestMergeFragments_WrongLengthNamesFragment(t *testing.T) {
	a, b, err := SplitFragments(newPhrase(t))
	require.NoError(t, err)

	res := MergeFragments(strings.Join(a.Words[:11], " "), b.String())
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, LabelA, res.Errors[0].Fragment)
	assert.Equal(t, CodeWordCount, res.Errors[0].Code)

	res = MergeFragments(a.String(), b.String()+" abandon")
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, LabelB, res.Errors[0].Fragment)
	assert.Equal(t, "fragment B: expected 12 words, got 13", res.Errors[0].Error())
}

func TestMergeFragments_UnknownWords(t *testing.T) {
	a, b, err := SplitFragments(newPhrase(t))
	require.NoError(t, err)

	bad := append([]string{}, b.Words...)
	bad[4] = "bitcoinz"

	res := MergeFragments(a.String(), strings.Join(bad, " "))
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeUnknownWord, res.Errors[0].Code)
	assert.Contains(t, res.Errors[0].Message, "word 5")
}

func TestValidateFragment_AloneIsNotAPhrase(t *testing.T) {
	a, _, err := SplitFragments(newPhrase(t))
	require.NoError(t, err)

	assert.Empty(t, ValidateFragment(LabelA, a.String()))
	assert.ErrorIs(t, ValidateMnemonic(a.String()), common.ErrInvalidMnemonic)
}
