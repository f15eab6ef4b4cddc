package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"covertchan/internal/crypto"
)

// keygen: generate session key material and seal it under the passphrase.
func keygenCmd() *cobra.Command {
	var printToken bool
	cmd := &cobra.Command{
		Use:         "keygen",
		Short:       "Generate key material and seal it in the home directory",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			m, err := wire.Codec.GenerateEncryption(cmd.Context())
			if err != nil {
				return err
			}
			defer crypto.Wipe(m.Key)
			if err := wire.Keys.SaveMaterial(passphrase, m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key saved in %s\nfingerprint: %s\n",
				wire.Keys.Dir(), crypto.Fingerprint(m.ExportableKey, m.IV))
			if printToken {
				fmt.Fprintf(cmd.OutOrStdout(), "token: %s\n", crypto.EncodeMaterial(m))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&printToken, "token", false, "also print the key as a token for the receiver")
	return cmd
}
