package cli

import (
	"encoding/json"

	"github.com/dmitrijs2005/legacykeeper/internal/client/client"
	"github.com/spf13/cobra"
)

func (a *App) releaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Operator commands for the release cycle",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run one warning and release cycle now and print its summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c client.Client) error {
				sum, err := c.RunReleaseCycle(cmd.Context())
				if err != nil {
					printFail(cmd.OutOrStdout(), "release cycle failed: %v", err)
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			})
		},
	})
	return cmd
}
