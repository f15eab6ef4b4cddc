package types

// Material is the symmetric key material of one session.
//
// ExportableKey is the serialisable form placed into the configuration so it
// can be delivered to the peer through an external channel.
type Material struct {
	Key           []byte `json:"key"`
	ExportableKey []byte `json:"exportable_key"`
	IV            []byte `json:"iv"`
}
