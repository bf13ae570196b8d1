// Package recovery generates the offline recovery kit: a 24-word BIP39
// phrase that wraps the vault's master password, and the two 12-word
// fragments the phrase can be split into for separate custody.
//
// Every function here is pure and safe for concurrent use.
package recovery

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/cryptox"
	"github.com/tyler-smith/go-bip39"
)

const (
	// WordCount is the length of a full recovery phrase.
	WordCount = 24
	// FragmentWords is the length of one fragment.
	FragmentWords = WordCount / 2

	entropyBits = 256
)

// Kit is the result of Generate. Mnemonic is shown to the user once and is
// never persisted; the Backup* fields are what the server keeps.
type Kit struct {
	VaultID          string
	Mnemonic         string
	BackupCiphertext []byte
	BackupSalt       []byte
	BackupNonce      []byte
}

// Generate creates a fresh phrase from 256 bits of entropy and seals
// password under it.
func Generate(password, vaultID string) (*Kit, error) {
	if password == "" {
		return nil, fmt.Errorf("password: %w", common.ErrInvalidInput)
	}

	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return nil, fmt.Errorf("entropy: %w", err)
	}
	defer common.WipeByteArray(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("mnemonic: %w", err)
	}

	sealed, err := cryptox.Encrypt([]byte(password), mnemonic)
	if err != nil {
		return nil, err
	}

	return &Kit{
		VaultID:          vaultID,
		Mnemonic:         mnemonic,
		BackupCiphertext: sealed.Ciphertext,
		BackupSalt:       sealed.Salt,
		BackupNonce:      sealed.Nonce,
	}, nil
}

// Recover checks the phrase against the word list and checksum and, only if
// it passes, opens the wrapped password.
func Recover(mnemonic string, ciphertext, salt, nonce []byte) (string, error) {
	normalized := Normalize(mnemonic)
	if err := ValidateMnemonic(normalized); err != nil {
		return "", err
	}

	password, err := cryptox.Decrypt(ciphertext, salt, nonce, normalized)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

// ValidateMnemonic accepts exactly 24 known words with a valid checksum.
func ValidateMnemonic(mnemonic string) error {
	words := strings.Fields(mnemonic)
	if len(words) != WordCount {
		return fmt.Errorf("expected %d words, got %d: %w", WordCount, len(words), common.ErrInvalidMnemonic)
	}
	if !bip39.IsMnemonicValid(strings.Join(words, " ")) {
		return fmt.Errorf("checksum: %w", common.ErrInvalidMnemonic)
	}
	return nil
}

// Normalize lowercases the phrase and collapses any whitespace to single
// spaces, so pasted or hand-typed input compares equal to the original.
func Normalize(mnemonic string) string {
	return strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
}
