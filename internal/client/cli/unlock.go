package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/legacykeeper/internal/client/client"
	"github.com/dmitrijs2005/legacykeeper/internal/client/unlock"
	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/spf13/cobra"
)

func (a *App) unlockCmd() *cobra.Command {
	var (
		out       string
		phrase    bool
		fragments bool
		qrFile    string
		preview   bool
	)

	cmd := &cobra.Command{
		Use:   "unlock TOKEN",
		Short: "Open a released vault with a release token and download its assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := args[0]
			w := cmd.OutOrStdout()

			return a.withClient(func(c client.Client) error {
				b := unlock.NewBeneficiary(c, a.logger)

				info, err := b.Preview(cmd.Context(), token)
				if err != nil {
					return explainTokenError(w, err)
				}
				printOK(w, "vault %s released to %s", info.VaultID, info.BeneficiaryName)
				printHint(w, "%d asset(s), link valid until %s", len(info.Assets), info.TokenExpiresAt.Format("2006-01-02 15:04"))
				if info.EncryptionHint != "" {
					printHint(w, "password hint: %s", info.EncryptionHint)
				}
				if preview {
					return nil
				}

				secret, err := readSecret(cmd, phrase, fragments, qrFile)
				if err != nil {
					return err
				}

				if _, err := b.Open(cmd.Context(), token); err != nil {
					return explainTokenError(w, err)
				}

				password, err := b.Password(cmd.Context(), secret)
				if err != nil {
					var merr *unlock.MergeError
					if errors.As(err, &merr) {
						for _, fe := range merr.Errors {
							printFail(w, "%s", fe.Error())
						}
						return err
					}
					printFail(w, "could not recover the password: %v", err)
					return err
				}

				results, err := b.SaveAll(cmd.Context(), info.Assets, password, out)
				if err != nil {
					return err
				}
				for _, r := range results {
					switch {
					case r.Err == nil:
						printOK(w, "%s", r.Path)
					case unlock.IsWrongSecret(r.Err):
						printFail(w, "%s: wrong password or recovery phrase", r.AssetID)
					default:
						printFail(w, "%s: %v", r.AssetID, r.Err)
					}
				}
				if unlock.Failed(results) {
					return fmt.Errorf("some assets could not be recovered")
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", ".", "directory for the decrypted files")
	f.BoolVar(&phrase, "phrase", false, "unlock with the 24-word recovery phrase")
	f.BoolVar(&fragments, "fragments", false, "unlock with recovery fragments A and B")
	f.StringVar(&qrFile, "qr", "", "unlock with a decoded QR payload read from this file")
	f.BoolVar(&preview, "preview", false, "only show what the token unlocks")
	cmd.MarkFlagsMutuallyExclusive("phrase", "fragments", "qr")
	return cmd
}

// readSecret prompts for whichever secret the flags select. The vault
// password is the default.
func readSecret(cmd *cobra.Command, phrase, fragments bool, qrFile string) (unlock.Secret, error) {
	var s unlock.Secret
	reader := bufio.NewReader(cmd.InOrStdin())
	errw := cmd.ErrOrStderr()

	switch {
	case qrFile != "":
		b, err := os.ReadFile(qrFile)
		if err != nil {
			return s, err
		}
		s.QRPayload = b
	case phrase:
		m, err := GetMultiline(reader, "Recovery phrase (24 words, empty line to finish)", errw)
		if err != nil {
			return s, err
		}
		s.Mnemonic = m
	case fragments:
		fa, err := GetSimpleText(reader, "Fragment A (12 words)", errw)
		if err != nil {
			return s, err
		}
		fb, err := GetSimpleText(reader, "Fragment B (12 words)", errw)
		if err != nil {
			return s, err
		}
		s.FragmentA, s.FragmentB = fa, fb
	default:
		pw, err := promptPassword(errw, "Vault password")
		if err != nil {
			return s, err
		}
		s.Password = pw
	}
	return s, nil
}

func explainTokenError(w io.Writer, err error) error {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		printFail(w, "this release link has expired")
	case errors.Is(err, common.ErrTokenInvalid):
		printFail(w, "this release link is not valid or has already been used")
	default:
		printFail(w, "%v", err)
	}
	return err
}
