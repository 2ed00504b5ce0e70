// Package session implements the per-connection streaming session: a small
// state machine that owns a recognizer stream, forwards recognition results
// to the client, and arbitrates which results are worth translating.
//
// A session is either Idle or Streaming. While Streaming it owns exactly one
// recognizer stream; stopping (or a stream failure) returns it to Idle.
// Translation requests run asynchronously so a slow translator can never
// stall recognition; results from a stream that has since been stopped are
// discarded via a generation counter.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/voxlate/voxlate/internal/observe"
	"github.com/voxlate/voxlate/pkg/stt"
	"github.com/voxlate/voxlate/pkg/translate"
	"github.com/voxlate/voxlate/pkg/wire"
)

// minCandidateLen is the length a translation candidate must exceed before a
// request is issued. Very short fragments ("a", "the", "um") churn the
// translator without producing useful output.
const minCandidateLen = 3

// State is the lifecycle state of a Session.
type State int

const (
	// Idle means no recognizer stream is active. Audio frames are dropped.
	Idle State = iota

	// Streaming means a recognizer stream is active and consuming audio.
	Streaming
)

// String returns the lowercase state name for logging.
func (s State) String() string {
	if s == Streaming {
		return "streaming"
	}
	return "idle"
}

// Sink receives events bound for the client. Implementations must not block
// for long and must tolerate Send after the connection is gone.
type Sink interface {
	Send(ev wire.ServerEvent)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev wire.ServerEvent)

// Send calls f(ev).
func (f SinkFunc) Send(ev wire.ServerEvent) { f(ev) }

// Config carries the collaborators and defaults for a Session.
type Config struct {
	// Recognizer opens recognition streams. Required.
	Recognizer stt.Recognizer

	// Translator serves translation requests. Required when translation
	// will ever be enabled.
	Translator translate.Translator

	// Sink receives all events for the client. Required.
	Sink Sink

	// Metrics records session activity. Nil disables recording.
	Metrics *observe.Metrics

	// RecognitionLanguage is the BCP-47 hint passed to the recognizer.
	RecognitionLanguage string

	// SourceLanguage is the translation source hint. Defaults to "auto".
	SourceLanguage string

	// TargetLanguage is the initial translation target. Defaults to "es".
	TargetLanguage string

	// SampleRate is the PCM sample rate of incoming frames. Defaults to
	// 16000.
	SampleRate int
}

// Session is the per-connection state machine. All exported methods are safe
// for concurrent use.
type Session struct {
	recognizer stt.Recognizer
	translator translate.Translator
	sink       Sink
	metrics    *observe.Metrics

	recognitionLanguage string
	sourceLanguage      string
	sampleRate          int

	mu                 sync.Mutex
	state              State
	generation         int
	stream             stt.Stream
	targetLanguage     string
	translationEnabled bool
	lastTranslatedText string
	utterance          int

	wg sync.WaitGroup
}

// New creates an Idle session. Translation starts disabled.
func New(cfg Config) *Session {
	if cfg.SourceLanguage == "" {
		cfg.SourceLanguage = "auto"
	}
	if cfg.TargetLanguage == "" {
		cfg.TargetLanguage = "es"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	return &Session{
		recognizer:          cfg.Recognizer,
		translator:          cfg.Translator,
		sink:                cfg.Sink,
		metrics:             cfg.Metrics,
		recognitionLanguage: cfg.RecognitionLanguage,
		sourceLanguage:      cfg.SourceLanguage,
		sampleRate:          cfg.SampleRate,
		targetLanguage:      cfg.TargetLanguage,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetTargetLanguage changes the translation target. Takes effect from the
// next recognition result; in-flight translations keep the language they
// were issued with.
func (s *Session) SetTargetLanguage(lang string) {
	if lang == "" {
		return
	}
	s.mu.Lock()
	s.targetLanguage = lang
	s.mu.Unlock()
	slog.Debug("session: target language set", "language", lang)
}

// SetTranslationEnabled toggles translation. Disabling clears the dedup
// cursor so re-enabling starts fresh.
func (s *Session) SetTranslationEnabled(enabled bool) {
	if enabled && s.translator == nil {
		slog.Warn("session: no translator configured, ignoring enable request")
		return
	}
	s.mu.Lock()
	s.translationEnabled = enabled
	if !enabled {
		s.lastTranslatedText = ""
	}
	s.mu.Unlock()
	slog.Debug("session: translation toggled", "enabled", enabled)
}

// Start opens a recognizer stream and moves the session to Streaming.
// Calling Start while already Streaming is a no-op. If the stream cannot be
// opened the session stays Idle, a transcription-error event is emitted, and
// the error is returned.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Streaming {
		s.mu.Unlock()
		slog.Debug("session: start ignored, already streaming")
		return nil
	}

	stream, err := s.recognizer.StartStream(ctx, stt.StreamConfig{
		SampleRate:     s.sampleRate,
		Channels:       1,
		Language:       s.recognitionLanguage,
		InterimResults: true,
	})
	if err != nil {
		s.mu.Unlock()
		slog.Error("session: recognizer start failed", "err", err)
		s.recordRecognizerError(ctx)
		s.sink.Send(wire.NewTranscriptionError("failed to start recognition: " + err.Error()))
		return err
	}

	s.state = Streaming
	s.stream = stream
	gen := s.generation
	s.mu.Unlock()

	s.wg.Add(1)
	go s.pump(ctx, gen, stream)

	slog.Info("session: streaming started", "language", s.recognitionLanguage, "sample_rate", s.sampleRate)
	return nil
}

// Stop closes the recognizer stream and returns the session to Idle. The
// dedup cursor is cleared and any in-flight translation results are
// discarded. Stop when Idle is a no-op; calling it repeatedly is safe.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state != Streaming {
		s.mu.Unlock()
		return
	}
	stream := s.stream
	s.teardownLocked()
	s.mu.Unlock()

	_ = stream.Close()
	slog.Info("session: streaming stopped")
}

// Close stops the session and waits for the result pump to drain. In-flight
// translation goroutines are not awaited; their results are discarded by the
// generation guard and the sink must tolerate late Sends.
func (s *Session) Close() {
	s.Stop()
	s.wg.Wait()
}

// teardownLocked resets to Idle and invalidates outstanding work. Callers
// hold s.mu and are responsible for closing the stream afterwards.
func (s *Session) teardownLocked() {
	s.state = Idle
	s.stream = nil
	s.generation++
	s.lastTranslatedText = ""
}

// HandleFrame forwards a PCM audio frame to the active recognizer stream.
// Frames arriving while Idle are dropped with a warning; the client may
// legitimately race a stop against its capture loop.
func (s *Session) HandleFrame(ctx context.Context, frame []byte) {
	s.mu.Lock()
	stream := s.stream
	streaming := s.state == Streaming
	s.mu.Unlock()

	if !streaming {
		slog.Warn("session: audio frame dropped, no active stream", "bytes", len(frame))
		if s.metrics != nil {
			s.metrics.FramesDropped.Add(ctx, 1)
		}
		return
	}

	if s.metrics != nil {
		s.metrics.AudioFrames.Add(ctx, 1)
	}
	if err := stream.SendAudio(frame); err != nil {
		slog.Warn("session: send audio failed", "err", err)
	}
}

// pump consumes recognition results until the stream ends. If the stream
// ends on its own (not via Stop) the session falls back to Idle and a
// terminal stream error is surfaced to the client.
func (s *Session) pump(ctx context.Context, gen int, stream stt.Stream) {
	defer s.wg.Done()

	for res := range stream.Results() {
		s.handleResult(ctx, gen, res)
	}

	err := stream.Err()

	s.mu.Lock()
	if gen != s.generation {
		// Stop already tore the session down.
		s.mu.Unlock()
		return
	}
	s.teardownLocked()
	s.mu.Unlock()
	_ = stream.Close()

	if err != nil {
		slog.Error("session: recognizer stream failed", "err", err)
		s.recordRecognizerError(ctx)
		s.sink.Send(wire.NewTranscriptionError(err.Error()))
	} else {
		slog.Info("session: recognizer stream ended")
	}
}

// handleResult forwards one recognition result to the client and decides
// whether to translate it. The decision and all cursor updates happen under
// the session lock; the translation request itself runs in its own
// goroutine.
func (s *Session) handleResult(ctx context.Context, gen int, res stt.Result) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}

	utterance := s.utterance
	candidate := strings.TrimSpace(res.Text)
	shouldTranslate := s.translationEnabled &&
		candidate != "" &&
		candidate != s.lastTranslatedText &&
		len(candidate) > minCandidateLen
	target := s.targetLanguage

	if res.IsFinal {
		// The utterance is closed: the next one must translate from a
		// clean slate even if it begins with identical text.
		s.lastTranslatedText = ""
		s.utterance++
	}
	s.mu.Unlock()

	s.sink.Send(wire.NewTranscriptEvent(wire.TranscriptEvent{
		Text:       res.Text,
		IsFinal:    res.IsFinal,
		Confidence: res.Confidence,
		Utterance:  utterance,
	}))
	if s.metrics != nil {
		s.metrics.RecordTranscript(ctx, res.IsFinal)
	}

	if shouldTranslate {
		s.wg.Add(1)
		go s.translateCandidate(ctx, gen, utterance, candidate, target, res.IsFinal)
	}
}

// translateCandidate issues one translation request and emits the result.
// Results belonging to a torn-down generation are discarded. The dedup
// cursor only advances for interim results of a still-open utterance, so a
// slow response can never mask text from a later utterance.
func (s *Session) translateCandidate(ctx context.Context, gen, utterance int, candidate, target string, isFinal bool) {
	defer s.wg.Done()

	ctx, span := observe.StartSpan(ctx, "session.translate")
	defer span.End()

	start := time.Now()
	res, err := s.translator.Translate(ctx, candidate, target, s.sourceLanguage)
	elapsed := time.Since(start)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		slog.Debug("session: discarding stale translation result", "text", candidate)
		if s.metrics != nil {
			s.metrics.RecordTranslation(ctx, "discarded", elapsed.Seconds())
		}
		return
	}
	if err == nil && !isFinal && utterance == s.utterance {
		s.lastTranslatedText = candidate
	}
	s.mu.Unlock()

	if err != nil {
		slog.Warn("session: translation failed", "err", err, "target", target)
		if s.metrics != nil {
			s.metrics.RecordTranslation(ctx, "error", elapsed.Seconds())
		}
		s.sink.Send(wire.NewTranslationError(err.Error()))
		return
	}

	if s.metrics != nil {
		s.metrics.RecordTranslation(ctx, "ok", elapsed.Seconds())
	}
	s.sink.Send(wire.NewTranslationEvent(wire.TranslationEvent{
		Original:               candidate,
		Translated:             res.Text,
		TargetLanguage:         target,
		DetectedSourceLanguage: res.DetectedSourceLanguage,
		IsFinal:                isFinal,
		Utterance:              utterance,
	}))
}

func (s *Session) recordRecognizerError(ctx context.Context) {
	if s.metrics != nil {
		s.metrics.RecognizerErrors.Add(ctx, 1)
	}
}
