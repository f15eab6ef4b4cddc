package codec

import (
	"errors"
	"fmt"
	"mime"
)

// ErrUnknownContentType is returned by Registry.Lookup for unregistered types.
var ErrUnknownContentType = errors.New("unknown content type")

// Codec marshals wire values. Implementations are deterministic.
type Codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Registry maps content types to codecs.
type Registry struct{ byType map[string]Codec }

// NewRegistry returns a registry holding JSON and canonical CBOR.
func NewRegistry() (*Registry, error) {
	r := &Registry{byType: make(map[string]Codec)}
	r.Register(JSON())
	c, err := CBOR()
	if err != nil {
		return nil, err
	}
	r.Register(c)
	return r, nil
}

// Register adds c, replacing any codec with the same content type.
func (r *Registry) Register(c Codec) { r.byType[c.ContentType()] = c }

// Get returns the codec for contentType, or nil.
func (r *Registry) Get(contentType string) Codec { return r.byType[contentType] }

// Lookup parses a Content-Type header value (parameters are ignored) and
// returns its codec. An empty header selects JSON.
func (r *Registry) Lookup(header string) (Codec, error) {
	if header == "" {
		return r.byType[ContentTypeJSON], nil
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrUnknownContentType, header, err)
	}
	c, ok := r.byType[mt]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, mt)
	}
	return c, nil
}
