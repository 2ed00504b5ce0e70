// Package mock provides test doubles for the stt package interfaces.
//
// Use Recognizer to verify that the caller starts streams with the expected
// StreamConfig. Use Stream to feed controlled Result values and inspect
// which audio chunks were delivered.
//
// Example:
//
//	stream := &mock.Stream{ResultsCh: make(chan stt.Result, 4)}
//	rec := &mock.Recognizer{Stream: stream}
//	handle, _ := rec.StartStream(ctx, cfg)
//	stream.ResultsCh <- stt.Result{Text: "hello", IsFinal: true}
package mock

import (
	"context"
	"sync"

	"github.com/voxlate/voxlate/pkg/stt"
)

// StartStreamCall records a single invocation of Recognizer.StartStream.
type StartStreamCall struct {
	// Ctx is the context passed to StartStream.
	Ctx context.Context
	// Cfg is the StreamConfig passed to StartStream.
	Cfg stt.StreamConfig
}

// Recognizer is a mock implementation of stt.Recognizer.
type Recognizer struct {
	mu sync.Mutex

	// Stream is the stt.Stream returned by StartStream. If nil, StartStream
	// returns a new default Stream with a buffered channel.
	Stream stt.Stream

	// StartStreamErr, if non-nil, is returned as the error from StartStream.
	StartStreamErr error

	// StartStreamCalls records every call to StartStream.
	StartStreamCalls []StartStreamCall
}

// StartStream records the call and returns Stream, StartStreamErr.
func (r *Recognizer) StartStream(ctx context.Context, cfg stt.StreamConfig) (stt.Stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StartStreamCalls = append(r.StartStreamCalls, StartStreamCall{Ctx: ctx, Cfg: cfg})
	if r.StartStreamErr != nil {
		return nil, r.StartStreamErr
	}
	if r.Stream != nil {
		return r.Stream, nil
	}
	return &Stream{ResultsCh: make(chan stt.Result, 16)}, nil
}

// StartStreamCallCount returns the number of StartStream calls. Thread-safe.
func (r *Recognizer) StartStreamCallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.StartStreamCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (r *Recognizer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StartStreamCalls = nil
}

// Ensure Recognizer implements stt.Recognizer at compile time.
var _ stt.Recognizer = (*Recognizer)(nil)

// SendAudioCall records a single invocation of Stream.SendAudio.
type SendAudioCall struct {
	// Chunk is a copy of the audio bytes that were passed to SendAudio.
	Chunk []byte
}

// Stream is a mock implementation of stt.Stream.
// Callers should pre-populate ResultsCh with the Result values they want the
// consumer to receive, then close it when done.
type Stream struct {
	mu sync.Mutex

	// ResultsCh is the channel returned by Results(). Callers own this
	// channel and are responsible for sending to and closing it in tests.
	ResultsCh chan stt.Result

	// ErrResult is returned by Err. Set it before closing ResultsCh to
	// simulate a terminal stream failure.
	ErrResult error

	// SendAudioErr, if non-nil, is returned by every SendAudio call.
	SendAudioErr error

	// CloseErr, if non-nil, is returned by Close.
	CloseErr error

	// CloseResultsOnClose makes Close also close ResultsCh (once), matching
	// real stream behaviour. Leave false when the test closes the channel
	// itself.
	CloseResultsOnClose bool

	// --- Call records ---

	// SendAudioCalls records every call to SendAudio in order.
	SendAudioCalls []SendAudioCall

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int

	resultsClosed bool
}

// SendAudio records the call and returns SendAudioErr.
func (s *Stream) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	s.SendAudioCalls = append(s.SendAudioCalls, SendAudioCall{Chunk: cp})
	return s.SendAudioErr
}

// Results returns ResultsCh. The caller must have initialised ResultsCh
// before calling this method.
func (s *Stream) Results() <-chan stt.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ResultsCh
}

// Err returns ErrResult.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ErrResult
}

// Close records the call and returns CloseErr.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCallCount++
	if s.CloseResultsOnClose && !s.resultsClosed {
		s.resultsClosed = true
		close(s.ResultsCh)
	}
	return s.CloseErr
}

// SendAudioCallCount returns the number of SendAudio calls. Thread-safe.
func (s *Stream) SendAudioCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.SendAudioCalls)
}

// CloseCount returns the number of Close calls. Thread-safe.
func (s *Stream) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CloseCallCount
}

// ResetCalls clears all recorded calls. Thread-safe.
func (s *Stream) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SendAudioCalls = nil
	s.CloseCallCount = 0
}

// Ensure Stream implements stt.Stream at compile time.
var _ stt.Stream = (*Stream)(nil)
