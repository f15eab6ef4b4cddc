package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"covertchan/internal/crypto"
	"covertchan/internal/domain"
)

// send --peer <peer> [--channel C] [--file F | <message>...]: transfer a
// payload to peer.
func sendCmd() *cobra.Command {
	var (
		peerAddr   string
		channel    string
		file       string
		printToken bool
	)
	cmd := &cobra.Command{
		Use:   "send --peer <peer> [--channel C] [--file F | <message>...]",
		Short: "Send a message or file to a peer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Channel.Encryption && passphrase == "" {
				return fmt.Errorf("encrypted transfers need a passphrase (-p) to seal the key for the receiver")
			}
			var payload []byte
			switch {
			case file != "" && len(args) > 0:
				return fmt.Errorf("give either --file or a message, not both")
			case file != "":
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				payload = b
			case len(args) > 0:
				payload = []byte(strings.Join(args, " "))
			default:
				return fmt.Errorf("nothing to send: give --file or a message")
			}
			if file != "" && !cmd.Flags().Changed("data-type") {
				cfg.Channel.DataType = string(domain.DataTypeFile)
			}

			peer, err := wire.ResolvePeer(peerAddr)
			if err != nil {
				return err
			}
			ctx, cancel := transferContext(cmd.Context())
			defer cancel()

			o, err := wire.Sender(ctx, domain.ChannelName(channel), passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "channel: %s\n", o.ChannelName())
			if printToken && o.EncryptionActive() {
				key, iv := o.Material()
				fmt.Fprintf(cmd.ErrOrStderr(), "token: %s\n",
					crypto.EncodeMaterial(domain.Material{ExportableKey: key, IV: iv}))
			}
			if wire.P2P != nil {
				for _, a := range wire.P2P.Addrs() {
					fmt.Fprintf(cmd.ErrOrStderr(), "listening: %s\n", a)
				}
			}

			done, err := o.Send(ctx, payload, peer)
			if err != nil {
				return err
			}
			res, err := done.Wait(ctx)
			if err != nil {
				return err
			}
			zap.L().Info("transfer sent", zap.Int("bytes", len(res.ExtractedData)))
			fmt.Fprintln(cmd.OutOrStdout(), "sent")
			return nil
		},
	}
	cmd.Flags().StringVar(&peerAddr, "peer", "", "recipient address (relay name, peer ID or /p2p/ multiaddr)")
	cmd.Flags().StringVar(&channel, "channel", "", "channel name agreed with the receiver (default: a fresh random name)")
	cmd.Flags().StringVar(&file, "file", "", "send the contents of this file")
	cmd.Flags().BoolVar(&printToken, "token", false, "print the key as a token for the receiver")
	_ = cmd.MarkFlagRequired("peer")
	return cmd
}
