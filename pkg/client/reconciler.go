package client

import (
	"strings"
	"sync"

	"github.com/voxlate/voxlate/pkg/wire"
)

// Tab selects which of the two parallel texts a view operation refers to.
type Tab int

const (
	// TabTranscript selects the recognised text.
	TabTranscript Tab = iota

	// TabTranslation selects the translated text.
	TabTranslation
)

// Reconciler assembles the server's event stream into two line buffers, one
// per tab, that always hold the same number of lines. Line n on both tabs is
// utterance n: finals land in the slot their utterance index names, so
// translations arriving late or not at all never shift the alignment, and
// replaying an event stream yields the same buffers it produced the first
// time.
//
// A cursor bounds how many lines Display renders. While following, the
// cursor sticks to the end as lines arrive; seeking away from the end stops
// following until SetFollow or a seek back to the end resumes it.
//
// All methods are safe for concurrent use.
type Reconciler struct {
	mu sync.Mutex

	transcript  []string
	translation []string

	interimTranscript  string
	interimTranslation string

	cursor int
	follow bool
}

// NewReconciler returns an empty Reconciler in follow mode.
func NewReconciler() *Reconciler {
	return &Reconciler{follow: true}
}

// Apply routes a server event to the matching buffer. Error events are
// ignored; callers surface those through their own channel.
func (r *Reconciler) Apply(ev wire.ServerEvent) {
	switch ev.Type {
	case wire.EventTranscript:
		r.ApplyTranscript(*ev.Transcript)
	case wire.EventTranslation:
		r.ApplyTranslation(*ev.Translation)
	}
}

// ApplyTranscript records a recognition result. Interim results replace the
// interim slot; finals settle into the line of their utterance and clear the
// slot.
func (r *Reconciler) ApplyTranscript(ev wire.TranscriptEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !ev.IsFinal {
		r.interimTranscript = ev.Text
		return
	}

	r.placeLocked(&r.transcript, ev.Utterance, ev.Text)
	r.interimTranscript = ""
	r.padLocked()
	if r.follow {
		r.cursor = len(r.transcript)
	}
}

// ApplyTranslation records a translation result. Finals settle into the line
// of their utterance, so a translation finishing after the next transcript
// has already arrived still lines up with its source text.
func (r *Reconciler) ApplyTranslation(ev wire.TranslationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !ev.IsFinal {
		r.interimTranslation = ev.Translated
		return
	}

	r.placeLocked(&r.translation, ev.Utterance, ev.Translated)
	r.interimTranslation = ""
	r.padLocked()
	if r.follow {
		r.cursor = len(r.transcript)
	}
}

// placeLocked writes text into buf at the given line, growing buf with empty
// lines as needed. Writing the same text to the same line twice is a no-op.
func (r *Reconciler) placeLocked(buf *[]string, line int, text string) {
	if line < 0 {
		return
	}
	for len(*buf) <= line {
		*buf = append(*buf, "")
	}
	(*buf)[line] = text
}

// padLocked grows the shorter buffer with empty lines until both are equal.
func (r *Reconciler) padLocked() {
	for len(r.translation) < len(r.transcript) {
		r.translation = append(r.translation, "")
	}
	for len(r.transcript) < len(r.translation) {
		r.transcript = append(r.transcript, "")
	}
}

// Seek moves the cursor by delta lines, clamped to [0, total]. Seeking away
// from the end leaves follow mode; seeking back to the end resumes it.
func (r *Reconciler) Seek(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := len(r.transcript)
	r.cursor += delta
	if r.cursor < 0 {
		r.cursor = 0
	}
	if r.cursor > total {
		r.cursor = total
	}
	r.follow = r.cursor == total
}

// SetFollow toggles follow mode. Enabling it snaps the cursor to the end.
func (r *Reconciler) SetFollow(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.follow = on
	if on {
		r.cursor = len(r.transcript)
	}
}

// Cursor returns the current cursor position in lines.
func (r *Reconciler) Cursor() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

// Follow reports whether the cursor is following the live end.
func (r *Reconciler) Follow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.follow
}

// Lines returns the number of settled lines (equal for both tabs).
func (r *Reconciler) Lines() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transcript)
}

// Display renders the chosen tab up to the cursor, with the interim line (if
// any) appended in brackets. Following at the live end therefore shows all
// settled text plus the words still forming.
func (r *Reconciler) Display(tab Tab) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := r.transcript
	interim := r.interimTranscript
	if tab == TabTranslation {
		lines = r.translation
		interim = r.interimTranslation
	}

	n := r.cursor
	if n > len(lines) {
		n = len(lines)
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(lines[i])
	}
	if r.follow && interim != "" {
		if n > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("[" + interim + "]")
	}
	return b.String()
}

// Snapshot returns copies of both line buffers.
func (r *Reconciler) Snapshot() (transcript, translation []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	transcript = make([]string, len(r.transcript))
	copy(transcript, r.transcript)
	translation = make([]string, len(r.translation))
	copy(translation, r.translation)
	return transcript, translation
}
