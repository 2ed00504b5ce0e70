// Package transport exposes streaming sessions over WebSocket.
//
// One WebSocket connection carries one session. The client sends JSON
// control messages as text frames and raw PCM audio as binary frames; the
// server answers with JSON events (transcripts, translations, errors) as
// text frames. The wire formats live in [wire].
package transport

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/voxlate/voxlate/internal/observe"
	"github.com/voxlate/voxlate/internal/session"
	"github.com/voxlate/voxlate/pkg/stt"
	"github.com/voxlate/voxlate/pkg/translate"
	"github.com/voxlate/voxlate/pkg/wire"
)

// outboundBuffer is the per-connection event queue size. Events beyond this
// are dropped rather than letting a slow client stall the session.
const outboundBuffer = 64

// Config carries the shared collaborators handed to every session.
type Config struct {
	// Recognizer opens recognition streams for sessions. Required.
	Recognizer stt.Recognizer

	// Translator serves sessions' translation requests. Required.
	Translator translate.Translator

	// Metrics records connection and session activity. Nil disables
	// recording.
	Metrics *observe.Metrics

	// RecognitionLanguage is the BCP-47 hint passed to the recognizer.
	RecognitionLanguage string

	// SourceLanguage is the default translation source hint.
	SourceLanguage string

	// TargetLanguage is the default translation target for new sessions.
	TargetLanguage string

	// SampleRate is the expected PCM sample rate of client audio.
	SampleRate int
}

// Server upgrades HTTP requests to WebSocket connections and runs one
// session per connection.
type Server struct {
	cfg Config

	defaultsMu sync.Mutex
	sourceLang string
	targetLang string
}

// NewServer creates a Server with the given config.
func NewServer(cfg Config) *Server {
	return &Server{
		cfg:        cfg,
		sourceLang: cfg.SourceLanguage,
		targetLang: cfg.TargetLanguage,
	}
}

// SetSessionDefaults updates the language defaults handed to new sessions.
// Existing sessions keep the defaults they were created with.
func (s *Server) SetSessionDefaults(targetLang, sourceLang string) {
	s.defaultsMu.Lock()
	s.targetLang = targetLang
	s.sourceLang = sourceLang
	s.defaultsMu.Unlock()
	slog.Info("transport: session defaults updated", "target_language", targetLang, "source_language", sourceLang)
}

// connSink delivers session events to the connection's writer goroutine.
// Send never blocks: when the queue is full or the connection is torn down
// the event is dropped. Translation goroutines may outlive the connection,
// so Send must stay safe after Close.
type connSink struct {
	mu     sync.Mutex
	closed bool
	out    chan wire.ServerEvent
}

func newConnSink() *connSink {
	return &connSink{out: make(chan wire.ServerEvent, outboundBuffer)}
}

// Send queues an event for the writer. Drops with a warning when the client
// cannot keep up or the connection is gone.
func (c *connSink) Send(ev wire.ServerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.out <- ev:
	default:
		slog.Warn("transport: outbound queue full, dropping event", "type", ev.Type)
	}
}

// Close stops accepting events and releases the writer goroutine.
func (c *connSink) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.out)
}

// HandleWS upgrades the request and serves the connection until the client
// disconnects or the request context ends.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Warn("transport: websocket accept failed", "err", err, "remote", r.RemoteAddr)
		return
	}

	ctx := r.Context()
	slog.Info("transport: client connected", "remote", r.RemoteAddr)
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ActiveSessions.Add(ctx, 1)
	}

	s.defaultsMu.Lock()
	sourceLang, targetLang := s.sourceLang, s.targetLang
	s.defaultsMu.Unlock()

	sink := newConnSink()
	sess := session.New(session.Config{
		Recognizer:          s.cfg.Recognizer,
		Translator:          s.cfg.Translator,
		Sink:                sink,
		Metrics:             s.cfg.Metrics,
		RecognitionLanguage: s.cfg.RecognitionLanguage,
		SourceLanguage:      sourceLang,
		TargetLanguage:      targetLang,
		SampleRate:          s.cfg.SampleRate,
	})

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		s.writeLoop(ctx, conn, sink.out)
	}()

	s.readLoop(ctx, conn, sess, sink)

	sess.Close()
	sink.Close()
	writerWG.Wait()
	_ = conn.Close(websocket.StatusNormalClosure, "")

	if s.cfg.Metrics != nil {
		// The request context may already be cancelled; the counter must
		// still come back down.
		s.cfg.Metrics.ActiveSessions.Add(context.WithoutCancel(ctx), -1)
	}
	slog.Info("transport: client disconnected", "remote", r.RemoteAddr)
}

// writeLoop serialises queued events onto the connection until the sink
// closes or a write fails.
func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan wire.ServerEvent) {
	for ev := range out {
		data, err := ev.Encode()
		if err != nil {
			slog.Error("transport: encode event failed", "type", ev.Type, "err", err)
			continue
		}
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			slog.Debug("transport: write failed, stopping writer", "err", err)
			return
		}
	}
}

// readLoop dispatches incoming frames until the connection ends. Binary
// frames carry audio; text frames carry control messages.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, sess *session.Session, sink *connSink) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				slog.Debug("transport: read ended", "err", err)
			}
			return
		}

		switch typ {
		case websocket.MessageBinary:
			sess.HandleFrame(ctx, data)
		case websocket.MessageText:
			s.handleControl(ctx, data, sess, sink)
		}
	}
}

// handleControl decodes and applies one client control message. Malformed
// messages produce an error event but keep the connection alive.
func (s *Server) handleControl(ctx context.Context, data []byte, sess *session.Session, sink *connSink) {
	msg, err := wire.DecodeClientMessage(data)
	if err != nil {
		slog.Warn("transport: unrecognized client message", "err", err)
		sink.Send(wire.NewTranscriptionError("unrecognized message: " + err.Error()))
		return
	}

	switch msg.Type {
	case wire.MsgStartTranscription:
		// Start already emits an error event on failure.
		_ = sess.Start(ctx)
	case wire.MsgStopTranscription:
		sess.Stop()
	case wire.MsgSetTargetLanguage:
		sess.SetTargetLanguage(msg.Language)
	case wire.MsgSetTranslationEnabled:
		sess.SetTranslationEnabled(*msg.Enabled)
	}
}
