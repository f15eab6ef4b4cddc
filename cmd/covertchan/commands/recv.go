package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"covertchan/internal/domain"
)

// recv --peer <peer> [--channel C] [--out F]: receive one transfer.
func recvCmd() *cobra.Command {
	var (
		peerAddr string
		channel  string
		token    string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "recv --peer <peer> [--channel C] [--out F]",
		Short: "Receive one transfer from a peer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Channel.Encryption && token == "" && passphrase == "" {
				return fmt.Errorf("encrypted transfers need --token or a passphrase (-p)")
			}
			peer, err := wire.ResolvePeer(peerAddr)
			if err != nil {
				return err
			}
			ctx, cancel := transferContext(cmd.Context())
			defer cancel()

			o, err := wire.Receiver(domain.ChannelName(channel), token, passphrase)
			if err != nil {
				return err
			}
			if wire.P2P != nil {
				for _, a := range wire.P2P.Addrs() {
					fmt.Fprintf(cmd.ErrOrStderr(), "listening: %s\n", a)
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "waiting on channel %s\n", o.ChannelName())

			done, err := o.Receive(ctx, peer)
			if err != nil {
				return err
			}
			res, err := done.Wait(ctx)
			if err != nil {
				return err
			}
			zap.L().Info("transfer received",
				zap.Int("bytes", len(res.ExtractedData)), zap.String("data_type", string(res.Config.DataType)))

			if out != "" {
				return os.WriteFile(out, res.ExtractedData, 0o600)
			}
			_, err = cmd.OutOrStdout().Write(res.ExtractedData)
			return err
		},
	}
	cmd.Flags().StringVar(&peerAddr, "peer", "", "sender address (relay name, peer ID or /p2p/ multiaddr)")
	cmd.Flags().StringVar(&channel, "channel", "", "channel name (default: recorded transfer info, else the debug channel)")
	cmd.Flags().StringVar(&token, "token", "", "key token from the sender instead of the key file")
	cmd.Flags().StringVar(&out, "out", "", "write the payload to this file instead of stdout")
	_ = cmd.MarkFlagRequired("peer")
	return cmd
}
