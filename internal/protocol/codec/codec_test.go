package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covertchan/internal/domain"
	"covertchan/internal/protocol/codec"
)

func sampleEnvelope() domain.Envelope {
	return domain.Envelope{
		Kind:    domain.EnvelopeKindReply,
		From:    "alice",
		To:      "bob",
		Channel: "extraction",
		Seq:     7,
		Payload: []byte{0, 1, 2, 0xff},
	}
}

func TestCodecs_Envelope(t *testing.T) {
	cb, err := codec.CBOR()
	require.NoError(t, err)

	for _, c := range []codec.Codec{codec.JSON(), cb} {
		t.Run(c.ContentType(), func(t *testing.T) {
			b, err := c.Marshal(sampleEnvelope())
			require.NoError(t, err)
			var out domain.Envelope
			require.NoError(t, c.Unmarshal(b, &out))
			assert.Equal(t, sampleEnvelope(), out)
		})
	}
}

func TestJSON_WireFieldNames(t *testing.T) {
	b, err := codec.JSON().Marshal(domain.Envelope{Kind: domain.EnvelopeKindReply, IsEnd: true})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"extraction":"reply"`)
	assert.Contains(t, string(b), `"isEnd":true`)
}

func TestCBOR_Deterministic(t *testing.T) {
	c, err := codec.CBOR()
	require.NoError(t, err)
	a, err := c.Marshal(sampleEnvelope())
	require.NoError(t, err)
	b, err := c.Marshal(sampleEnvelope())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRegistry_Lookup(t *testing.T) {
	r, err := codec.NewRegistry()
	require.NoError(t, err)

	c, err := r.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, codec.ContentTypeJSON, c.ContentType())

	c, err = r.Lookup("application/cbor; charset=binary")
	require.NoError(t, err)
	assert.Equal(t, codec.ContentTypeCBOR, c.ContentType())

	_, err = r.Lookup("text/xml")
	require.ErrorIs(t, err, codec.ErrUnknownContentType)
	assert.Nil(t, r.Get("text/xml"))
}
