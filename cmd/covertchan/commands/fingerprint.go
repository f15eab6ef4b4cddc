package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"covertchan/internal/crypto"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "fingerprint",
		Short:       "Print the fingerprint of the sealed key material",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			m, err := wire.Keys.LoadMaterial(passphrase)
			if err != nil {
				return err
			}
			defer crypto.Wipe(m.Key, m.ExportableKey)
			fmt.Fprintln(cmd.OutOrStdout(), crypto.Fingerprint(m.ExportableKey, m.IV))
			return nil
		},
	}
}
