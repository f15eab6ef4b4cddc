package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// id: print the p2p peer ID kept in the home directory, creating it on first
// use. The other side passes it as --peer before this side starts.
func idCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "id",
		Short:       "Print this home directory's p2p peer ID",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := wire.PeerID()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
