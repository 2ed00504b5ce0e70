package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCaptureUnavailable indicates that the capture source could not be
// opened (device missing, permission denied, backend failure). Errors
// returned by [Framer.Start] wrap it so callers can match with [errors.Is].
var ErrCaptureUnavailable = errors.New("audio: capture source unavailable")

// Source opens named capture devices. Implementations wrap a platform audio
// backend; tests use the scripted source in the mock subpackage.
type Source interface {
	// Open starts capturing from the device identified by sourceID and
	// returns a live Capture. Implementations should fail fast when the
	// device does not exist rather than returning a dead capture.
	Open(sourceID string) (Capture, error)
}

// Capture is a live capture stream delivering float32 sample quanta.
type Capture interface {
	// Samples returns the channel of capture quanta. Each quantum is mono
	// float32 samples in [-1, 1] at SampleRate. The channel is closed when
	// the capture ends.
	Samples() <-chan []float32

	// SampleRate returns the native sample rate of the quanta in Hz.
	SampleRate() int

	// Close stops the capture and closes the Samples channel. Idempotent.
	Close() error
}

// FrameFunc receives each converted frame. It is called from the framing
// goroutine and must not block for long.
type FrameFunc func(Frame)

// Framer converts a capture source into wire-format frames. At most one
// capture is active per Framer; starting a new capture tears down the
// previous one first.
type Framer struct {
	source Source

	mu      sync.Mutex
	capture Capture
	wg      sync.WaitGroup
}

// NewFramer creates a Framer over the given source.
func NewFramer(source Source) *Framer {
	return &Framer{source: source}
}

// Start opens the capture device and begins delivering frames to onFrame.
// Each quantum from the source is metered ([PeakLevel]), quantised
// ([FloatToPCM16]), and resampled to [WireSampleRate] when the source rate
// differs. If the source cannot be opened the error wraps
// [ErrCaptureUnavailable] and no frames are delivered.
func (f *Framer) Start(sourceID string, onFrame FrameFunc) error {
	f.Stop()

	capture, err := f.source.Open(sourceID)
	if err != nil {
		return fmt.Errorf("%w: open %q: %v", ErrCaptureUnavailable, sourceID, err)
	}

	f.mu.Lock()
	f.capture = capture
	f.mu.Unlock()

	f.wg.Add(1)
	go f.frameLoop(capture, onFrame)
	return nil
}

// frameLoop converts quanta until the capture's Samples channel closes.
func (f *Framer) frameLoop(capture Capture, onFrame FrameFunc) {
	defer f.wg.Done()

	rate := capture.SampleRate()
	if rate <= 0 {
		rate = WireSampleRate
	}
	var elapsed time.Duration

	for quantum := range capture.Samples() {
		if len(quantum) == 0 {
			continue
		}
		level := PeakLevel(quantum)
		pcm := FloatToPCM16(quantum)
		if rate != WireSampleRate {
			pcm = ResampleMono16(pcm, rate, WireSampleRate)
		}
		onFrame(Frame{PCM: pcm, Level: level, Timestamp: elapsed})
		elapsed += time.Duration(len(quantum)) * time.Second / time.Duration(rate)
	}
}

// Stop ends the current capture, if any, and waits for the framing goroutine
// to drain. Calling Stop with no active capture is a no-op; calling it more
// than once is safe.
func (f *Framer) Stop() {
	f.mu.Lock()
	capture := f.capture
	f.capture = nil
	f.mu.Unlock()

	if capture == nil {
		return
	}
	_ = capture.Close()
	f.wg.Wait()
}
