package types

// EnvelopeKindReply tags every message of the transfer protocol on the wire.
const EnvelopeKindReply = "reply"

// Message is what a session ingests: one fragment, or the terminal marker.
type Message struct {
	Payload []byte `json:"payload,omitempty"`
	IsEnd   bool   `json:"isEnd"`
}

// Envelope is the wire-format message carried by a transport.
//
// Seq numbers the messages of one transfer from zero; the terminal message
// carries the next number after the last fragment.
type Envelope struct {
	Kind    string      `json:"extraction" cbor:"1,keyasint"`
	From    PeerID      `json:"from" cbor:"2,keyasint"`
	To      PeerID      `json:"to" cbor:"3,keyasint"`
	Channel ChannelName `json:"channel" cbor:"4,keyasint"`
	Seq     uint64      `json:"seq" cbor:"5,keyasint"`
	Payload []byte      `json:"payload,omitempty" cbor:"6,keyasint,omitempty"`
	IsEnd   bool        `json:"isEnd" cbor:"7,keyasint"`
}

// Message strips the routing fields off e.
func (e Envelope) Message() Message {
	return Message{Payload: e.Payload, IsEnd: e.IsEnd}
}

// Result is what a completed transfer resolves to.
type Result struct {
	ExtractedData []byte        `json:"extracted_data"`
	Config        Configuration `json:"config"`
}
