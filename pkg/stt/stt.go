// Package stt defines the speech-to-text recognizer boundary used by the
// streaming session. Implementations live in subpackages (deepgram,
// whisperhttp) with test doubles in mock.
package stt

import "context"

// Result is a single recognition result emitted by a stream.
type Result struct {
	// Text is the recognised text. May be empty for keep-alive results.
	Text string

	// IsFinal reports whether this result is authoritative for its
	// utterance. Interim results for the same utterance may be revised by
	// later results; a final result closes the utterance.
	IsFinal bool

	// Confidence is the provider's confidence in [0, 1], when reported.
	Confidence float64
}

// StreamConfig carries per-stream parameters for StartStream.
type StreamConfig struct {
	// SampleRate is the PCM sample rate in Hz. 0 means provider default.
	SampleRate int

	// Channels is the channel count of the PCM audio. 0 means mono.
	Channels int

	// Language is the BCP-47 recognition language hint (e.g., "en",
	// "de-DE"). Empty means provider default.
	Language string

	// InterimResults requests low-latency interim results when the
	// provider supports them.
	InterimResults bool
}

// Stream is a live recognition stream. Audio goes in through SendAudio;
// results come out of the Results channel in provider arrival order.
//
// A stream ends when Close is called or when the provider connection fails.
// Either way the Results channel is closed; after that, Err reports the
// terminal failure, or nil for a clean shutdown.
type Stream interface {
	// SendAudio queues a chunk of 16-bit signed little-endian PCM audio.
	// Returns an error when the stream is closed.
	SendAudio(chunk []byte) error

	// Results returns the ordered result channel. Closed when the stream
	// ends.
	Results() <-chan Result

	// Err returns the terminal stream error, or nil. Only meaningful after
	// Results has been closed.
	Err() error

	// Close terminates the stream. Idempotent.
	Close() error
}

// Recognizer opens recognition streams. Implementations must be safe for
// concurrent use; each returned Stream is independent.
type Recognizer interface {
	StartStream(ctx context.Context, cfg StreamConfig) (Stream, error)
}
