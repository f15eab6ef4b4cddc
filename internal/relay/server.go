package relay

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"covertchan/internal/domain"
	"covertchan/internal/protocol/codec"
)

// DefaultMaxBody bounds one request body.
const DefaultMaxBody = 1 << 20

type ackRequest struct {
	Count int `json:"count" cbor:"1,keyasint"`
}

type queueKey struct {
	to      domain.PeerID
	channel domain.ChannelName
}

// Server is an in-memory relay. All state is lost on exit.
type Server struct {
	codecs  *codec.Registry
	maxBody int64

	mu     sync.Mutex
	queues map[queueKey][]domain.Envelope

	mux *http.ServeMux
}

// NewServer returns an empty relay.
func NewServer() (*Server, error) {
	reg, err := codec.NewRegistry()
	if err != nil {
		return nil, err
	}
	s := &Server{
		codecs:  reg,
		maxBody: DefaultMaxBody,
		queues:  make(map[queueKey][]domain.Envelope),
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /msg/{to}/{channel}", s.handleEnqueue)
	s.mux.HandleFunc("GET /msg/{to}/{channel}", s.handleFetch)
	s.mux.HandleFunc("POST /msg/{to}/{channel}/ack", s.handleAck)
	return s, nil
}

// ServeHTTP routes and access-logs one request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	zap.L().Debug("relay request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote", r.RemoteAddr),
		zap.Int("status", rec.status),
		zap.Int("bytes", rec.bytes),
		zap.Duration("took", time.Since(start)))
}

// Pending returns the queue length for (to, channel).
func (s *Server) Pending(to domain.PeerID, channel domain.ChannelName) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues[queueKey{to, channel}])
}

func key(r *http.Request) queueKey {
	return queueKey{
		to:      domain.PeerID(r.PathValue("to")),
		channel: domain.ChannelName(r.PathValue("channel")),
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	c, err := s.codecs.Lookup(r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		return false
	}
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	if err := c.Unmarshal(b, v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	k := key(r)
	var env domain.Envelope
	if !s.decode(w, r, &env) {
		return
	}
	if env.To != k.to || env.Channel != k.channel {
		http.Error(w, "envelope does not match queue", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.queues[k] = append(s.queues[k], env)
	s.mu.Unlock()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	c, err := s.codecs.Lookup(r.Header.Get("Accept"))
	if err != nil {
		c = codec.JSON()
	}

	k := key(r)
	s.mu.Lock()
	q := s.queues[k]
	if limit == 0 || limit > len(q) {
		limit = len(q)
	}
	out := make([]domain.Envelope, limit)
	copy(out, q[:limit])
	s.mu.Unlock()

	b, err := c.Marshal(out)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", c.ContentType())
	_, _ = w.Write(b)
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	var req ackRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Count < 0 {
		http.Error(w, "bad count", http.StatusBadRequest)
		return
	}
	k := key(r)
	s.mu.Lock()
	q := s.queues[k]
	if req.Count >= len(q) {
		delete(s.queues, k)
	} else {
		s.queues[k] = append([]domain.Envelope(nil), q[req.Count:]...)
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
