// Package audio provides the capture-side audio pipeline for Voxlate:
// fixed-point sample conversion, peak-level metering, and the Framer that
// turns a live capture source into wire-ready PCM frames.
//
// The wire format is fixed: 16-bit signed little-endian PCM, mono, 16 kHz.
// Sources producing other sample rates are resampled with linear
// interpolation before framing.
package audio

import "time"

const (
	// WireSampleRate is the sample rate of PCM audio on the wire.
	WireSampleRate = 16000

	// WireChannels is the channel count of PCM audio on the wire.
	WireChannels = 1
)

// Frame is a single quantum of capture audio, converted to the wire format
// and annotated with the peak level of the source samples.
type Frame struct {
	// PCM is 16-bit signed little-endian mono PCM at [WireSampleRate].
	PCM []byte

	// Level is the peak absolute amplitude of the source quantum in [0, 1].
	// It is measured before quantisation so silent input reports exactly 0.
	Level float64

	// Timestamp is the offset of this frame from the start of capture.
	Timestamp time.Duration
}
