package types

// PeerID is an opaque address of a remote session peer on a transport.
type PeerID string

// String returns the string form of the peer identifier.
func (p PeerID) String() string { return string(p) }

// ChannelName multiplexes one logical transfer among others on a shared transport.
type ChannelName string

// String returns the string form of the channel name.
func (c ChannelName) String() string { return string(c) }

// DebugChannelName is the fixed channel used when debug mode is on.
const DebugChannelName ChannelName = "extraction"

// Fingerprint is a short identifier for key material presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }
