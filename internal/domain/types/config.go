package types

import "time"

// Method selects the transport strategy that moves fragments.
type Method string

const (
	// MethodEndpoint sends every fragment as soon as the previous one is accepted.
	MethodEndpoint Method = "endpoint"
	// MethodPaced sends one fragment per PingInterval tick.
	MethodPaced Method = "paced"
)

// Valid reports whether m names a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodEndpoint, MethodPaced:
		return true
	}
	return false
}

// DataType describes what the payload is; it travels with the configuration.
type DataType string

const (
	DataTypeText   DataType = "text"
	DataTypeBinary DataType = "binary"
	DataTypeFile   DataType = "file"
)

// Valid reports whether d names a known data type.
func (d DataType) Valid() bool {
	switch d {
	case DataTypeText, DataTypeBinary, DataTypeFile:
		return true
	}
	return false
}

// Configuration is the resolved settings record of one channel session.
//
// Key and IV are set only when EncryptionEnabled is true and encryption has
// been initialised (or supplied by the caller on the receiving side). Key
// holds the exportable form a strategy may relay to the peer out of band.
type Configuration struct {
	Method            Method        `json:"method" mapstructure:"method"`
	DataType          DataType      `json:"data_type" mapstructure:"data_type"`
	ChunkSize         int           `json:"chunk_size" mapstructure:"chunk_size"`
	EncryptionEnabled bool          `json:"encryption_enabled" mapstructure:"encryption_enabled"`
	PingInterval      time.Duration `json:"ping_interval" mapstructure:"ping_interval"`
	Debug             bool          `json:"debug" mapstructure:"debug"`
	Key               []byte        `json:"key,omitempty" mapstructure:"-"`
	IV                []byte        `json:"iv,omitempty" mapstructure:"-"`
}

// Clone returns a copy that shares no byte slices with c.
func (c Configuration) Clone() Configuration {
	out := c
	if c.Key != nil {
		out.Key = append([]byte(nil), c.Key...)
	}
	if c.IV != nil {
		out.IV = append([]byte(nil), c.IV...)
	}
	return out
}

// Overrides carries caller-supplied settings. Nil fields keep the default.
type Overrides struct {
	Method            *Method
	DataType          *DataType
	ChunkSize         *int
	EncryptionEnabled *bool
	PingInterval      *time.Duration
	Debug             *bool
	Key               []byte
	IV                []byte
}
