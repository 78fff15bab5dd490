package control

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/pixelgenie/internal/effect"
)

const (
	// QueryCommand asks for the full configuration.
	QueryCommand = "query"

	InvalidJSONReply = "Command is not valid json"
	rejectedPrefix   = "Configuration rejected: "

	writeWait = 2 * time.Second
)

// Configurator is the part of the effect registry the control channel needs.
type Configurator interface {
	Configuration() effect.Configuration
	ApplyConfiguration(effect.Partial) error
}

// Peer is one bidirectional message channel. *websocket.Conn satisfies it.
type Peer interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
}

type deadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Server answers configuration queries and applies partial updates coming
// from remote clients. Each peer is served on its own goroutine, so a slow
// client never holds up rendering.
type Server struct {
	cfg      Configurator
	status   func() any
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

type Option func(*Server)

// WithStatus adds a status source reported by HandleHealth.
func WithStatus(f func() any) Option { return func(s *Server) { s.status = f } }

func WithLogger(l zerolog.Logger) Option { return func(s *Server) { s.log = l } }

func NewServer(cfg Configurator, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		log:      log.Logger,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With().Str("component", "control").Logger()
	return s
}

// HandleControlWS upgrades the request and serves the peer until it closes.
func (s *Server) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("upgrade")
		return
	}
	defer conn.Close()
	s.Serve(conn, r.RemoteAddr)
}

// Serve runs the receive loop for one peer and returns when the peer is
// gone. Bad input is answered with an error string; it never ends the loop.
func (s *Server) Serve(p Peer, name string) {
	l := s.log.With().Str("peer", name).Logger()
	l.Info().Msg("connection opened")
	for {
		_, msg, err := p.ReadMessage()
		if err != nil {
			l.Info().Err(err).Msg("connection closed")
			return
		}
		l.Debug().Bytes("command", msg).Msg("<")

		reply, ok := s.handle(msg)
		if !ok {
			continue
		}
		if d, isDeadliner := p.(deadliner); isDeadliner {
			_ = d.SetWriteDeadline(time.Now().Add(writeWait))
		}
		if err := p.WriteMessage(websocket.TextMessage, reply); err != nil {
			l.Info().Err(err).Msg("write failed, closing")
			return
		}
		l.Debug().Int("bytes", len(reply)).Msg(">")
	}
}

// handle returns the reply for msg, if any.
func (s *Server) handle(msg []byte) ([]byte, bool) {
	if strings.TrimSpace(string(msg)) == QueryCommand {
		b, err := json.Marshal(s.cfg.Configuration())
		if err != nil {
			s.log.Error().Err(err).Msg("encode configuration")
			return []byte(rejectedPrefix + err.Error()), true
		}
		return b, true
	}

	if !json.Valid(msg) {
		return []byte(InvalidJSONReply), true
	}
	p, err := decodePartial(msg)
	if err == nil {
		err = s.cfg.ApplyConfiguration(p)
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("configuration rejected")
		return []byte(rejectedPrefix + err.Error()), true
	}
	s.log.Info().Int("effects", len(p)).Msg("configuration applied")
	return nil, false
}

func decodePartial(msg []byte) (effect.Partial, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.DisallowUnknownFields()
	var p effect.Partial
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("decode: expected an object")
	}
	return p, nil
}

// HandleHealth reports the status source as JSON.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var body any = map[string]string{"status": "ok"}
	if s.status != nil {
		body = s.status()
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Debug().Err(err).Msg("health")
	}
}
