package recovery

import (
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
)

const zeroEntropyPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon " +
	"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art"

func TestGenerate_ConcreteScenario(t *testing.T) {
	kit, err := Generate("Test123456!", "v-1")
	require.NoError(t, err)

	assert.Equal(t, "v-1", kit.VaultID)
	assert.Len(t, strings.Fields(kit.Mnemonic), WordCount)
	assert.True(t, bip39.IsMnemonicValid(kit.Mnemonic))

	a, b, err := SplitFragments(kit.Mnemonic)
	require.NoError(t, err)
	assert.Len(t, a.Words, FragmentWords)
	assert.Len(t, b.Words, FragmentWords)
	assert.Equal(t, LabelA, a.Label)
	assert.Equal(t, LabelB, b.Label)

	merged := MergeFragments(a.String(), b.String())
	assert.Equal(t, MergeResult{Mnemonic: kit.Mnemonic, Valid: true, Errors: []FragmentError{}}, merged)

	password, err := Recover(kit.Mnemonic, kit.BackupCiphertext, kit.BackupSalt, kit.BackupNonce)
	require.NoError(t, err)
	assert.Equal(t, "Test123456!", password)
}

func TestGenerate_EmptyPassword(t *testing.T) {
	_, err := Generate("", "v-1")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRecover_ToleratesFormatting(t *testing.T) {
	kit, err := Generate("pw", "v")
	require.NoError(t, err)

	messy := "  " + strings.ToUpper(strings.ReplaceAll(kit.Mnemonic, " ", "\n ")) + "\t"
	got, err := Recover(messy, kit.BackupCiphertext, kit.BackupSalt, kit.BackupNonce)
	require.NoError(t, err)
	assert.Equal(t, "pw", got)
}

func TestRecover_OtherMnemonic(t *testing.T) {
	kit, err := Generate("pw", "v")
	require.NoError(t, err)

	_, err = Recover(zeroEntropyPhrase, kit.BackupCiphertext, kit.BackupSalt, kit.BackupNonce)
	assert.ErrorIs(t, err, common.ErrDecryption)
}

func TestRecover_InvalidMnemonicRejectedBeforeCrypto(t *testing.T) {
	kit, err := Generate("pw", "v")
	require.NoError(t, err)
	words := strings.Fields(kit.Mnemonic)

	tests := []struct {
		name     string
		mnemonic string
	}{
		{name: "empty", mnemonic: ""},
		{name: "fragment only", mnemonic: strings.Join(words[:12], " ")},
		{name: "23 words", mnemonic: strings.Join(words[:23], " ")},
		{name: "unknown word", mnemonic: strings.Join(append(append([]string{}, words[:23]...), "notaword"), " ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// nil salt would be ErrInvalidInput if decryption were attempted
			_, err := Recover(tt.mnemonic, kit.BackupCiphertext, nil, kit.BackupNonce)
			assert.ErrorIs(t, err, common.ErrInvalidMnemonic)
		})
	}
}

func TestValidateMnemonic_KnownVector(t *testing.T) {
	assert.NoError(t, ValidateMnemonic(zeroEntropyPhrase))
	assert.ErrorIs(t, ValidateMnemonic(strings.Replace(zeroEntropyPhrase, "art", "abandon", 1)), common.ErrInvalidMnemonic)
}

func TestGenerate_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	phrases := make([]string, 8)
	for i := range phrases {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kit, err := Generate("pw", "v")
			if err == nil {
				phrases[i] = kit.Mnemonic
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, p := range phrases {
		require.NotEmpty(t, p)
		assert.False(t, seen[p])
		seen[p] = true
	}
}
