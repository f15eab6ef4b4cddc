package domain

import (
	interfaces "covertchan/internal/domain/interfaces"
	types "covertchan/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	PeerID        = types.PeerID
	ChannelName   = types.ChannelName
	Fingerprint   = types.Fingerprint
	Method        = types.Method
	DataType      = types.DataType
	Configuration = types.Configuration
	Overrides     = types.Overrides
	Message       = types.Message
	Envelope      = types.Envelope
	Result        = types.Result
	Material      = types.Material
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	Codec     = interfaces.Codec
	Transport = interfaces.Transport
	KeyStore  = interfaces.KeyStore
)

const (
	DebugChannelName  = types.DebugChannelName
	EnvelopeKindReply = types.EnvelopeKindReply

	MethodEndpoint = types.MethodEndpoint
	MethodPaced    = types.MethodPaced

	DataTypeText   = types.DataTypeText
	DataTypeBinary = types.DataTypeBinary
	DataTypeFile   = types.DataTypeFile
)
