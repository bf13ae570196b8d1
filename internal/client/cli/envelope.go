package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/cryptox"
	"github.com/dmitrijs2005/legacykeeper/internal/filex"
	"github.com/dmitrijs2005/legacykeeper/internal/integrity"
	"github.com/spf13/cobra"
)

// envelope is the sidecar written next to a locally encrypted file. It holds
// everything needed to open the ciphertext except the password.
type envelope struct {
	Format    cryptox.Format `json:"format"`
	ChunkSize int            `json:"chunkSize,omitempty"`
	Salt      []byte         `json:"salt"`
	Nonce     []byte         `json:"nonce"`
	Checksum  string         `json:"checksum"`
	PlainSize int64          `json:"plainSize"`
}

const envelopeSuffix = ".meta.json"

func writeEnvelope(path string, e *envelope) error {
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func readEnvelope(path string) (*envelope, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("envelope %s: %w", path, common.ErrInvalidInput)
	}
	return &e, nil
}

// encryptFile seals src into dst. Files below the large-file threshold are
// sealed whole; larger ones are streamed in memory-sized segments.
func encryptFile(ctx context.Context, src, dst, password string) (*envelope, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return nil, err
	}

	var env *envelope
	err = filex.WriteAtomic(dst, func(out *os.File) error {
		if fi.Size() < cryptox.LargeFileThreshold {
			plaintext, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(plaintext)

			p, err := cryptox.EncryptBuffer(plaintext, password)
			if err != nil {
				return err
			}
			if _, err := out.Write(p.Ciphertext); err != nil {
				return err
			}
			env = &envelope{Format: p.Format, ChunkSize: p.ChunkSize, Salt: p.Salt, Nonce: p.Nonce,
				Checksum: p.Checksum, PlainSize: int64(len(plaintext))}
			return nil
		}

		res, err := cryptox.EncryptStream(ctx, in, out, password, cryptox.StreamOptions{
			ChunkSize: cryptox.MemoryChunkSize,
			Total:     fi.Size(),
		})
		if err != nil {
			return err
		}
		env = &envelope{Format: res.Format, ChunkSize: res.ChunkSize, Salt: res.Salt, Nonce: res.Nonce,
			Checksum: res.Checksum, PlainSize: res.PlainSize}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}

// decryptFile verifies src against env and only then opens it into dst.
func decryptFile(ctx context.Context, src, dst, password string, env *envelope) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if _, err := integrity.Verify(in, env.Checksum); err != nil {
		return err
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return err
	}

	size := cryptox.SealedSize(env.PlainSize, env.ChunkSize)
	return filex.WriteAtomic(dst, func(out *os.File) error {
		if env.Format == cryptox.FormatSegmented {
			return cryptox.DecryptStream(ctx, in, out, password, env.Salt, env.Nonce,
				cryptox.StreamOptions{ChunkSize: env.ChunkSize, Total: size})
		}
		ct, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		pt, err := cryptox.DecryptBuffer(ct, env.Salt, env.Nonce, password, env.ChunkSize, size)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(pt)
		_, err = out.Write(pt)
		return err
	})
}

func (a *App) encryptCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "encrypt FILE",
		Short: "Encrypt a file locally under the vault password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			if out == "" {
				out = src + ".enc"
			}

			password, err := promptPassword(cmd.ErrOrStderr(), "Vault password")
			if err != nil {
				return err
			}

			env, err := encryptFile(cmd.Context(), src, out, password)
			if err != nil {
				return fmt.Errorf("encrypt %s: %w", src, err)
			}
			if err := writeEnvelope(out+envelopeSuffix, env); err != nil {
				return err
			}

			a.logger.Debug(cmd.Context(), "file encrypted", "format", env.Format, "size", env.PlainSize)
			printOK(cmd.OutOrStdout(), "encrypted %s -> %s (%s)", src, out, env.Format)
			printHint(cmd.OutOrStdout(), "keep %s next to the ciphertext", out+envelopeSuffix)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default FILE.enc)")
	return cmd
}

func (a *App) decryptCmd() *cobra.Command {
	var out, meta string

	cmd := &cobra.Command{
		Use:   "decrypt FILE",
		Short: "Verify and decrypt a file produced by encrypt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			if meta == "" {
				meta = src + envelopeSuffix
			}
			if out == "" {
				out = src + ".dec"
			}

			env, err := readEnvelope(meta)
			if err != nil {
				return err
			}

			password, err := promptPassword(cmd.ErrOrStderr(), "Vault password")
			if err != nil {
				return err
			}

			if err := decryptFile(cmd.Context(), src, out, password, env); err != nil {
				printFail(cmd.OutOrStdout(), "decrypt %s: %v", src, err)
				return err
			}
			printOK(cmd.OutOrStdout(), "decrypted %s -> %s", src, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default FILE.dec)")
	cmd.Flags().StringVarP(&meta, "meta", "m", "", "envelope file (default FILE"+envelopeSuffix+")")
	return cmd
}
