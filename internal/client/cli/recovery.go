package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/recovery"
	"github.com/spf13/cobra"
)

// backupFile is the server-side half of a recovery kit, saved locally by
// "recovery generate" and read back by "recovery recover".
type backupFile struct {
	VaultID    string `json:"vaultId,omitempty"`
	Ciphertext []byte `json:"ciphertext"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
}

func (a *App) recoveryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recovery",
		Short: "Create, split, merge and use offline recovery phrases",
	}
	cmd.AddCommand(
		a.recoveryGenerateCmd(),
		a.recoverySplitCmd(),
		a.recoveryMergeCmd(),
		a.recoveryRecoverCmd(),
		a.recoveryDocumentCmd(),
	)
	return cmd
}

// readPhrase takes the phrase from args or, if none, from stdin.
func readPhrase(cmd *cobra.Command, args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return recovery.Normalize(strings.Join(args, " ")), nil
	}
	text, err := GetMultiline(bufio.NewReader(cmd.InOrStdin()), prompt, cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	return recovery.Normalize(text), nil
}

func printFragments(w io.Writer, a, b recovery.Fragment) {
	fmt.Fprintf(w, "Fragment %s: %s\n", a.Label, a)
	fmt.Fprintf(w, "Fragment %s: %s\n", b.Label, b)
}

func (a *App) recoveryGenerateCmd() *cobra.Command {
	var vaultID, out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a 24-word recovery phrase that unlocks the vault password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword(cmd.ErrOrStderr(), "Vault password")
			if err != nil {
				return err
			}

			kit, err := recovery.Generate(password, vaultID)
			if err != nil {
				return err
			}

			if out != "" {
				if err := writeJSON(out, backupFile{VaultID: vaultID, Ciphertext: kit.BackupCiphertext,
					Salt: kit.BackupSalt, Nonce: kit.BackupNonce}); err != nil {
					return err
				}
			}

			fa, fb, err := recovery.SplitFragments(kit.Mnemonic)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, kit.Mnemonic)
			printFragments(w, fa, fb)
			printOK(w, "recovery phrase generated")
			printHint(w, "write it down now; it is not stored anywhere")
			if out != "" {
				printHint(w, "wrapped password saved to %s", out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&vaultID, "vault", "", "vault id printed on the document")
	cmd.Flags().StringVarP(&out, "out", "o", "", "file for the wrapped password backup")
	return cmd
}

func (a *App) recoverySplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split [WORDS...]",
		Short: "Split a recovery phrase into fragments A and B",
		RunE: func(cmd *cobra.Command, args []string) error {
			phrase, err := readPhrase(cmd, args, "Recovery phrase (24 words)")
			if err != nil {
				return err
			}
			fa, fb, err := recovery.SplitFragments(phrase)
			if err != nil {
				printFail(cmd.OutOrStdout(), "%v", err)
				return err
			}
			printFragments(cmd.OutOrStdout(), fa, fb)
			return nil
		},
	}
}

func (a *App) recoveryMergeCmd() *cobra.Command {
	var fragA, fragB string

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Join fragments A and B back into the recovery phrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			var err error
			if fragA == "" {
				if fragA, err = GetSimpleText(reader, "Fragment A (12 words)", cmd.ErrOrStderr()); err != nil {
					return err
				}
			}
			if fragB == "" {
				if fragB, err = GetSimpleText(reader, "Fragment B (12 words)", cmd.ErrOrStderr()); err != nil {
					return err
				}
			}

			res := recovery.MergeFragments(fragA, fragB)
			w := cmd.OutOrStdout()
			if !res.Valid {
				for _, fe := range res.Errors {
					printFail(w, "%s", fe.Error())
				}
				return common.ErrInvalidMnemonic
			}
			fmt.Fprintln(w, res.Mnemonic)
			printOK(w, "fragments merged")
			return nil
		},
	}
	cmd.Flags().StringVar(&fragA, "a", "", "fragment A")
	cmd.Flags().StringVar(&fragB, "b", "", "fragment B")
	return cmd
}

func (a *App) recoveryRecoverCmd() *cobra.Command {
	var backup string

	cmd := &cobra.Command{
		Use:   "recover [WORDS...]",
		Short: "Unwrap the vault password from a backup file with the recovery phrase",
		RunE: func(cmd *cobra.Command, args []string) error {
			var b backupFile
			if err := readJSON(backup, &b); err != nil {
				return err
			}

			phrase, err := readPhrase(cmd, args, "Recovery phrase (24 words)")
			if err != nil {
				return err
			}

			password, err := recovery.Recover(phrase, b.Ciphertext, b.Salt, b.Nonce)
			if err != nil {
				printFail(cmd.OutOrStdout(), "%v", err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), password)
			return nil
		},
	}
	cmd.Flags().StringVar(&backup, "backup", "", "wrapped password file written by generate")
	_ = cmd.MarkFlagRequired("backup")
	return cmd
}

func (a *App) recoveryDocumentCmd() *cobra.Command {
	var vaultID, token, out, qrOut string
	var qrSize int

	cmd := &cobra.Command{
		Use:   "document [WORDS...]",
		Short: "Render a printable recovery sheet, optionally with a QR code",
		RunE: func(cmd *cobra.Command, args []string) error {
			phrase, err := readPhrase(cmd, args, "Recovery phrase (24 words)")
			if err != nil {
				return err
			}

			doc, err := recovery.NewDocument(&recovery.Kit{VaultID: vaultID, Mnemonic: phrase}, token, qrOut != "")
			if err != nil {
				printFail(cmd.OutOrStdout(), "%v", err)
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.OpenFile(out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := doc.Render(w); err != nil {
				return err
			}

			if qrOut != "" {
				png, err := doc.QRCode(qrSize)
				if err != nil {
					return err
				}
				if err := writeFile(qrOut, png); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "QR code written to %s", qrOut)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&vaultID, "vault", "", "vault id")
	cmd.Flags().StringVar(&token, "token", "", "release token to embed in the QR payload")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the sheet to a file instead of stdout")
	cmd.Flags().StringVar(&qrOut, "qr", "", "write a QR code PNG to this file")
	cmd.Flags().IntVar(&qrSize, "qr-size", 256, "QR code size in pixels")
	return cmd
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, b)
}

func writeFile(path string, b []byte) error {
	return os.WriteFile(path, b, 0o600)
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%s: %w", path, common.ErrInvalidInput)
	}
	return nil
}
