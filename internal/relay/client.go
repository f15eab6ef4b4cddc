package relay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"covertchan/internal/domain"
	"covertchan/internal/protocol/codec"
)

// Client is a domain.Transport backed by a relay Server.
type Client struct {
	Base string
	HTTP *http.Client

	local domain.PeerID
	codec codec.Codec
	poll  time.Duration
	batch int
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }

// WithCodec selects the wire codec. JSON by default.
func WithCodec(cd codec.Codec) Option { return func(c *Client) { c.codec = cd } }

// WithPollInterval sets how often Subscribe polls the relay.
func WithPollInterval(d time.Duration) Option { return func(c *Client) { c.poll = d } }

// WithBatch caps how many envelopes one poll fetches.
func WithBatch(n int) Option { return func(c *Client) { c.batch = n } }

// New returns a client for the relay at base acting as local.
func New(base string, local domain.PeerID, opts ...Option) *Client {
	c := &Client{
		Base:  base,
		HTTP:  http.DefaultClient,
		local: local,
		codec: codec.JSON(),
		poll:  time.Second,
		batch: 64,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Local returns the relay address of this client.
func (c *Client) Local() domain.PeerID { return c.local }

// Send enqueues env on the recipient's queue for env.Channel.
func (c *Client) Send(ctx context.Context, env domain.Envelope) error {
	return c.post(ctx, queuePath(env.To, env.Channel), env)
}

// Fetch returns up to limit queued envelopes addressed to us on channel
// without removing them.
func (c *Client) Fetch(ctx context.Context, channel domain.ChannelName, limit int) ([]domain.Envelope, error) {
	path := queuePath(c.local, channel)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var envs []domain.Envelope
	if err := c.get(ctx, path, &envs); err != nil {
		return nil, err
	}
	return envs, nil
}

// Ack drops the first count envelopes of our queue on channel.
func (c *Client) Ack(ctx context.Context, channel domain.ChannelName, count int) error {
	return c.post(ctx, queuePath(c.local, channel)+"/ack", ackRequest{Count: count})
}

// Subscribe polls our queue on channel and streams the envelopes sent by
// from. Envelopes from anyone else are consumed and dropped.
func (c *Client) Subscribe(
	ctx context.Context,
	channel domain.ChannelName,
	from domain.PeerID,
) (<-chan domain.Envelope, error) {
	out := make(chan domain.Envelope)
	go func() {
		defer close(out)
		ticker := time.NewTicker(c.poll)
		defer ticker.Stop()
		for {
			full, ok := c.pollOnce(ctx, channel, from, out)
			if !ok {
				return
			}
			if full {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out, nil
}

// pollOnce fetches one batch, forwards it and acknowledges what was consumed.
// full reports a batch at capacity; ok is false once ctx is done.
func (c *Client) pollOnce(
	ctx context.Context,
	channel domain.ChannelName,
	from domain.PeerID,
	out chan<- domain.Envelope,
) (full, ok bool) {
	envs, err := c.Fetch(ctx, channel, c.batch)
	if err != nil {
		if ctx.Err() != nil {
			return false, false
		}
		zap.L().Warn("relay poll failed", zap.String("channel", channel.String()), zap.Error(err))
		return false, true
	}

	consumed := 0
	defer func() {
		if consumed == 0 {
			return
		}
		ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := c.Ack(ackCtx, channel, consumed); err != nil {
			zap.L().Warn("relay ack failed",
				zap.String("channel", channel.String()), zap.Int("count", consumed), zap.Error(err))
		}
	}()

	for _, env := range envs {
		if env.From != from {
			zap.L().Debug("dropping relay envelope from unexpected sender",
				zap.String("channel", channel.String()), zap.String("from", env.From.String()))
			consumed++
			continue
		}
		select {
		case out <- env:
			consumed++
		case <-ctx.Done():
			return false, false
		}
	}
	return c.batch > 0 && len(envs) == c.batch, true
}

func queuePath(to domain.PeerID, channel domain.ChannelName) string {
	return "/msg/" + url.PathEscape(to.String()) + "/" + url.PathEscape(channel.String())
}

func (c *Client) post(ctx context.Context, path string, in any) error {
	b, err := c.codec.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", c.codec.ContentType())
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay post %s: %s", path, resp.Status)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", c.codec.ContentType())
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay get %s: %s", path, resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return c.codec.Unmarshal(b, out)
}

var _ domain.Transport = (*Client)(nil)
