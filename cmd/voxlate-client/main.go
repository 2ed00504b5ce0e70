// Command voxlate-client streams a PCM audio file to a voxlate server and
// prints transcripts and translations as they arrive. When the stream ends
// the session is written to an unsaved-session snapshot that the lecture
// archive API can later persist.
//
// The input file must be raw 16-bit signed little-endian PCM, mono, 16 kHz.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/voxlate/voxlate/pkg/audio"
	"github.com/voxlate/voxlate/pkg/client"
	"github.com/voxlate/voxlate/pkg/wire"
)

// quantumDuration is how much audio each capture quantum carries. Frames are
// paced at this interval to mimic a live microphone.
const quantumDuration = 100 * time.Millisecond

// drainWindow is how long the client keeps listening for trailing finals and
// translations after the last audio frame was sent.
const drainWindow = 2 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "voxlate server WebSocket URL")
	file := flag.String("file", "", "path to a raw PCM16 mono 16 kHz audio file (required)")
	target := flag.String("target", "es", "translation target language code")
	translate := flag.Bool("translate", false, "enable live translation")
	outDir := flag.String("out", ".", "directory for the session snapshot")
	title := flag.String("title", "", "session title stored in the snapshot")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if *file == "" {
		fmt.Fprintln(os.Stderr, "voxlate-client: -file is required")
		flag.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, *serverURL, client.WithOnEvent(printEvent))
	if err != nil {
		fmt.Fprintf(os.Stderr, "voxlate-client: connect %s: %v\n", *serverURL, err)
		return 1
	}
	defer c.Close()

	if *translate {
		if err := c.SetTargetLanguage(ctx, *target); err != nil {
			fmt.Fprintf(os.Stderr, "voxlate-client: set target language: %v\n", err)
			return 1
		}
		if err := c.SetTranslationEnabled(ctx, true); err != nil {
			fmt.Fprintf(os.Stderr, "voxlate-client: enable translation: %v\n", err)
			return 1
		}
	}

	if err := c.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "voxlate-client: start transcription: %v\n", err)
		return 1
	}

	// ── Stream the file ───────────────────────────────────────────────────────
	source := &fileSource{}
	framer := audio.NewFramer(source)
	if err := framer.Start(*file, func(f audio.Frame) {
		if err := c.SendFrame(ctx, f.PCM); err != nil {
			slog.Warn("send frame failed", "err", err)
		}
	}); err != nil {
		fmt.Fprintf(os.Stderr, "voxlate-client: %v\n", err)
		return 1
	}

	select {
	case <-source.lastCapture().doneStreaming():
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "\nvoxlate-client: interrupted")
	}
	framer.Stop()

	if err := c.Stop(context.Background()); err != nil {
		slog.Warn("stop transcription failed", "err", err)
	}

	// Trailing finals can still arrive after the stop message.
	select {
	case <-time.After(drainWindow):
	case <-ctx.Done():
	}

	if err := c.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "voxlate-client: connection error: %v\n", err)
	}

	// ── Save the session snapshot ─────────────────────────────────────────────
	transcript, translation := c.Reconciler().Snapshot()
	rec := client.Record{
		Title:       *title,
		Transcript:  transcript,
		Translation: translation,
	}
	if *translate {
		rec.TranslationLanguage = *target
	}
	recorder := client.NewRecorder(*outDir)
	if err := recorder.Save(rec); err != nil {
		fmt.Fprintf(os.Stderr, "voxlate-client: save session: %v\n", err)
		return 1
	}
	fmt.Printf("\nsession saved to %s\n", recorder.Path())
	return 0
}

// printEvent renders one server event to stdout. Interim transcripts are
// bracketed so final lines stand out.
func printEvent(ev wire.ServerEvent) {
	switch ev.Type {
	case wire.EventTranscript:
		if ev.Transcript == nil {
			return
		}
		if ev.Transcript.IsFinal {
			fmt.Printf("  [%d] %s\n", ev.Transcript.Utterance, ev.Transcript.Text)
		} else {
			fmt.Printf("  [%d] (%s)\r", ev.Transcript.Utterance, ev.Transcript.Text)
		}
	case wire.EventTranslation:
		if ev.Translation == nil {
			return
		}
		fmt.Printf("  [%d] -> %s: %s\n", ev.Translation.Utterance, ev.Translation.TargetLanguage, ev.Translation.Translated)
	case wire.EventTranscriptionError, wire.EventTranslationError:
		if ev.Error != nil {
			fmt.Fprintf(os.Stderr, "server error (%s): %s\n", ev.Type, ev.Error.Message)
		}
	}
}

// ── File-backed capture source ──────────────────────────────────────────────

// fileSource opens raw PCM16 files as audio captures, pacing quanta in real
// time so the server sees microphone-like traffic.
type fileSource struct {
	mu   sync.Mutex
	last *fileCapture
}

func (s *fileSource) Open(path string) (audio.Capture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 2 {
		return nil, errors.New("audio file is empty")
	}

	c := &fileCapture{
		samples: make(chan []float32),
		done:    make(chan struct{}),
		stop:    make(chan struct{}),
	}
	go c.stream(pcm16ToFloat32(data))

	s.mu.Lock()
	s.last = c
	s.mu.Unlock()
	return c, nil
}

func (s *fileSource) lastCapture() *fileCapture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

type fileCapture struct {
	samples chan []float32
	done    chan struct{}
	stop    chan struct{}
	once    sync.Once
}

func (c *fileCapture) Samples() <-chan []float32 { return c.samples }

func (c *fileCapture) SampleRate() int { return audio.WireSampleRate }

// doneStreaming is closed once the whole file has been delivered or the
// capture was closed early.
func (c *fileCapture) doneStreaming() <-chan struct{} { return c.done }

func (c *fileCapture) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

// stream delivers the file in real-time quanta. The samples channel is closed
// from here only, after the last quantum or an early Close.
func (c *fileCapture) stream(all []float32) {
	defer close(c.done)
	defer close(c.samples)

	quantum := int(audio.WireSampleRate * quantumDuration / time.Second)
	ticker := time.NewTicker(quantumDuration)
	defer ticker.Stop()

	for offset := 0; offset < len(all); offset += quantum {
		end := min(offset+quantum, len(all))

		select {
		case c.samples <- all[offset:end]:
		case <-c.stop:
			return
		}

		select {
		case <-ticker.C:
		case <-c.stop:
			return
		}
	}
}

// pcm16ToFloat32 converts 16-bit signed little-endian PCM bytes to float32
// samples in [-1, 1]. A trailing odd byte is ignored.
func pcm16ToFloat32(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := range n {
		v := int16(data[i*2]) | int16(data[i*2+1])<<8
		out[i] = float32(v) / 32768
	}
	return out
}
