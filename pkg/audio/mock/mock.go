// Package mock provides test doubles for the audio package interfaces.
//
// Use Source to script capture quanta in tests:
//
//	src := &mock.Source{Rate: 16000}
//	framer := audio.NewFramer(src)
//	framer.Start("mic", onFrame)
//	src.LastCapture().Push([]float32{0.5, -0.5})
//	src.LastCapture().Close()
package mock

import (
	"sync"

	"github.com/voxlate/voxlate/pkg/audio"
)

// Source is a mock implementation of audio.Source.
type Source struct {
	mu sync.Mutex

	// Rate is the sample rate reported by captures opened from this source.
	// Defaults to 16000 when zero.
	Rate int

	// OpenErr, if non-nil, is returned by every Open call.
	OpenErr error

	// OpenCalls records the sourceID of every Open call in order.
	OpenCalls []string

	captures []*Capture
}

// Open records the call and returns a fresh Capture, or OpenErr if set.
func (s *Source) Open(sourceID string) (audio.Capture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.OpenCalls = append(s.OpenCalls, sourceID)
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	rate := s.Rate
	if rate == 0 {
		rate = 16000
	}
	c := &Capture{rate: rate, samples: make(chan []float32, 16)}
	s.captures = append(s.captures, c)
	return c, nil
}

// LastCapture returns the most recently opened Capture, or nil if Open was
// never called successfully.
func (s *Source) LastCapture() *Capture {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.captures) == 0 {
		return nil
	}
	return s.captures[len(s.captures)-1]
}

// OpenCallCount returns the number of Open calls. Thread-safe.
func (s *Source) OpenCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.OpenCalls)
}

// Ensure Source implements audio.Source at compile time.
var _ audio.Source = (*Source)(nil)

// Capture is a scripted audio.Capture. Tests push quanta with Push and end
// the capture with Close.
type Capture struct {
	rate    int
	samples chan []float32

	mu             sync.Mutex
	closed         bool
	CloseCallCount int
}

// Push delivers a quantum to the capture consumer. Tests must not call Push
// after Close.
func (c *Capture) Push(quantum []float32) {
	c.samples <- quantum
}

// Samples returns the scripted quanta channel.
func (c *Capture) Samples() <-chan []float32 { return c.samples }

// SampleRate returns the rate configured on the parent Source.
func (c *Capture) SampleRate() int { return c.rate }

// Close closes the quanta channel. Idempotent.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CloseCallCount++
	if !c.closed {
		c.closed = true
		close(c.samples)
	}
	return nil
}

// Ensure Capture implements audio.Capture at compile time.
var _ audio.Capture = (*Capture)(nil)
