package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/legacykeeper/internal/client/client"
	"github.com/dmitrijs2005/legacykeeper/internal/client/pending"
	"github.com/dmitrijs2005/legacykeeper/internal/client/pipeline"
	"github.com/dmitrijs2005/legacykeeper/internal/cryptox"
	"github.com/dmitrijs2005/legacykeeper/internal/filex"
	"github.com/spf13/cobra"
)

// withUploader opens the pending queue and a client and hands fn an
// uploader bound to both.
func (a *App) withUploader(ctx context.Context, fn func(u *pipeline.Uploader) error) error {
	staging, err := filex.EnsureDir(a.config.StagingDir)
	if err != nil {
		return fmt.Errorf("staging dir: %w", err)
	}

	db, err := a.openDB(ctx, a.config.DatabasePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", a.config.DatabasePath, err)
	}
	defer db.Close()

	return a.withClient(func(c client.Client) error {
		return fn(pipeline.NewUploader(c, pending.NewSQLiteStore(db), staging, a.logger))
	})
}

func (a *App) uploadCmd() *cobra.Command {
	var in pipeline.UploadInput

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Encrypt a file locally and upload it to a vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Path = args[0]

			password, err := promptPassword(cmd.ErrOrStderr(), "Vault password")
			if err != nil {
				return err
			}
			in.Password = password

			w := cmd.OutOrStdout()
			in.OnProgress = func(p cryptox.Progress) {
				fmt.Fprintf(cmd.ErrOrStderr(), "\rencrypting %3d%%", p.Percentage)
			}

			return a.withUploader(cmd.Context(), func(u *pipeline.Uploader) error {
				asset, err := u.Upload(cmd.Context(), in)
				fmt.Fprintln(cmd.ErrOrStderr())
				if err != nil {
					printFail(w, "%s: %v", in.Path, err)
					return err
				}

				if asset.Status == pending.StatusSynced {
					printOK(w, "%s uploaded as asset %s", in.Path, asset.RemoteID)
					return nil
				}
				printFail(w, "%s encrypted but not synced: %s", in.Path, asset.LastError)
				printHint(w, "queued as %s; run \"vaultctl sync\" once the server is reachable", asset.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.VaultID, "vault", "", "vault id")
	cmd.Flags().StringVar(&in.Category, "category", "", "free-form category label")
	cmd.Flags().StringVar(&in.Replaces, "replaces", "", "id of the asset this upload supersedes")
	_ = cmd.MarkFlagRequired("vault")
	return cmd
}

func (a *App) syncCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Retry queued uploads that have not reached the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUploader(cmd.Context(), func(u *pipeline.Uploader) error {
				r := pipeline.NewReconciler(u, a.config.ReconcileInterval, a.logger)
				if watch {
					if a.config.ReconcileInterval <= 0 {
						return fmt.Errorf("--watch needs a positive reconcile interval")
					}
					printHint(cmd.OutOrStdout(), "reconciling every %s; interrupt to stop", a.config.ReconcileInterval)
					r.Start(cmd.Context())
					return nil
				}

				rep, err := r.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				if rep.Failed > 0 {
					printFail(cmd.OutOrStdout(), "%d synced, %d still pending", rep.Synced, rep.Failed)
					return nil
				}
				printOK(cmd.OutOrStdout(), "%d synced", rep.Synced)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep reconciling on the configured interval")
	return cmd
}
