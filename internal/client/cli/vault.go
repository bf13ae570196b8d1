package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/legacykeeper/internal/client/client"
	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/recovery"
	"github.com/dmitrijs2005/legacykeeper/internal/rpc"
	"github.com/spf13/cobra"
)

func (a *App) vaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Create vaults and list their assets",
	}
	cmd.AddCommand(a.vaultCreateCmd(), a.vaultAssetsCmd())
	return cmd
}

func (a *App) vaultCreateCmd() *cobra.Command {
	var (
		req          rpc.CreateVaultRequest
		beneficiaries string
		qrOut        string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a vault, its recovery kit and its beneficiaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := readJSON(beneficiaries, &req.Beneficiaries); err != nil {
				return err
			}
			if len(req.Beneficiaries) == 0 {
				return fmt.Errorf("at least one beneficiary is required: %w", common.ErrInvalidInput)
			}

			password, err := GetNewPassword(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			kit, err := recovery.Generate(string(password), "")
			if err != nil {
				return err
			}
			req.RecoveryCiphertext = kit.BackupCiphertext
			req.RecoverySalt = kit.BackupSalt
			req.RecoveryNonce = kit.BackupNonce

			return a.withClient(func(c client.Client) error {
				resp, err := c.CreateVault(cmd.Context(), &req)
				if err != nil {
					printFail(cmd.OutOrStdout(), "vault not created: %v", err)
					return err
				}
				kit.VaultID = resp.VaultID

				doc, err := recovery.NewDocument(kit, "", qrOut != "")
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				printOK(w, "vault %s created (%s)", resp.VaultID, resp.Status)
				for _, b := range resp.Beneficiaries {
					printHint(w, "beneficiary %s <%s> id=%s", b.Name, b.Email, b.ID)
				}
				fmt.Fprintln(w)
				if err := doc.Render(w); err != nil {
					return err
				}
				if qrOut != "" {
					png, err := doc.QRCode(256)
					if err != nil {
						return err
					}
					if err := writeFile(qrOut, png); err != nil {
						return err
					}
					printOK(w, "QR code written to %s", qrOut)
				}
				printHint(w, "print this sheet; the recovery phrase is not stored anywhere")
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.UserID, "user", "", "owner user id")
	f.StringVar(&req.OwnerEmail, "email", "", "owner email for heartbeat warnings")
	f.StringVar(&req.Language, "lang", "en", "language of the emails and letters")
	f.StringVar(&req.EncryptionHint, "hint", "", "password hint shown to beneficiaries")
	f.IntVar(&req.HeartbeatFrequencyDays, "heartbeat-days", 30, "days between required heartbeats")
	f.IntVar(&req.GracePeriodDays, "grace-days", 7, "days after the warning before release")
	f.BoolVar(&req.PhysicalDelivery, "physical", false, "also ship a printed letter on release")
	f.StringVar(&beneficiaries, "beneficiaries", "", "JSON file with the beneficiary list")
	f.StringVar(&qrOut, "qr", "", "write the recovery QR code PNG to this file")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("beneficiaries")
	return cmd
}

func (a *App) vaultAssetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assets VAULT_ID",
		Short: "List the assets registered in a vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c client.Client) error {
				list, err := c.ListAssets(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printHint(cmd.OutOrStdout(), "vault has no assets")
					return nil
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCATEGORY\tFORMAT\tSIZE\tCHECKSUM")
				for _, as := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", as.ID, as.Category, as.Format, as.SizeBytes, as.Checksum)
				}
				return tw.Flush()
			})
		},
	}
}

func (a *App) heartbeatCmd() *cobra.Command {
	var vaultID, link string

	cmd := &cobra.Command{
		Use:   "heartbeat",
		Short: "Confirm the owner is alive and reset the release timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (vaultID == "") == (link == "") {
				return fmt.Errorf("exactly one of --vault or --link is required: %w", common.ErrInvalidInput)
			}
			return a.withClient(func(c client.Client) error {
				id, err := c.ConfirmHeartbeat(cmd.Context(), vaultID, link)
				if err != nil {
					printFail(cmd.OutOrStdout(), "heartbeat rejected: %v", err)
					return err
				}
				printOK(cmd.OutOrStdout(), "heartbeat recorded for vault %s", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&vaultID, "vault", "", "vault id")
	cmd.Flags().StringVar(&link, "link", "", "link token from a warning email")
	return cmd
}
