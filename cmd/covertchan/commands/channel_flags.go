package commands

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	method       string
	dataType     string
	chunkSize    int
	pingInterval time.Duration
	noEncryption bool
	debugChannel bool
)

func addChannelFlags(fs *pflag.FlagSet) {
	fs.StringVar(&method, "method", "", "transfer method: endpoint or paced")
	fs.StringVar(&dataType, "data-type", "", "payload kind: text, binary or file")
	fs.IntVar(&chunkSize, "chunk-size", 0, "fragment size in bytes")
	fs.DurationVar(&pingInterval, "ping-interval", 0, "pause between paced fragments and relay polls")
	fs.BoolVar(&noEncryption, "no-encryption", false, "send the payload in the clear")
	fs.BoolVar(&debugChannel, "debug", false, "use the fixed debug channel name")
}

func applyChannelFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Channel.Method = method
	}
	if flags.Changed("data-type") {
		cfg.Channel.DataType = dataType
	}
	if flags.Changed("chunk-size") {
		cfg.Channel.ChunkSize = chunkSize
	}
	if flags.Changed("ping-interval") {
		cfg.Channel.PingInterval = pingInterval
	}
	if flags.Changed("no-encryption") {
		cfg.Channel.Encryption = !noEncryption
	}
	if flags.Changed("debug") {
		cfg.Channel.Debug = debugChannel
	}
}
