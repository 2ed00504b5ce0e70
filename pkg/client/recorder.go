package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// sessionFileName is the fixed name of the snapshot file. Each save
// overwrites the previous one; promoting a session to a permanent record is
// a server-side operation.
const sessionFileName = "unsaved-session.json"

// Record is the on-disk snapshot of a finished (or interrupted) session.
type Record struct {
	// Title is a caller-chosen label for the session.
	Title string `json:"title,omitempty"`

	// Transcript holds the settled transcript lines.
	Transcript []string `json:"transcript"`

	// Translation holds the settled translation lines, padded to the same
	// length as Transcript.
	Translation []string `json:"translation"`

	// TranslationLanguage is the target language the session translated to.
	TranslationLanguage string `json:"translationLanguage,omitempty"`

	// EndedAt is when the snapshot was taken.
	EndedAt time.Time `json:"endedAt"`
}

// Recorder persists session snapshots into a directory.
type Recorder struct {
	dir string
}

// NewRecorder returns a Recorder that writes into dir. The directory must
// exist.
func NewRecorder(dir string) *Recorder {
	return &Recorder{dir: dir}
}

// Path returns the file the next Save will write.
func (r *Recorder) Path() string {
	return filepath.Join(r.dir, sessionFileName)
}

// Save writes the record, replacing any previous snapshot.
func (r *Recorder) Save(rec Record) error {
	if rec.EndedAt.IsZero() {
		rec.EndedAt = time.Now()
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("client: encode session record: %w", err)
	}
	if err := os.WriteFile(r.Path(), data, 0o644); err != nil {
		return fmt.Errorf("client: write session record: %w", err)
	}
	return nil
}

// Load reads the last saved snapshot. Returns an error satisfying
// errors.Is(err, os.ErrNotExist) when no snapshot was ever saved.
func (r *Recorder) Load() (Record, error) {
	data, err := os.ReadFile(r.Path())
	if err != nil {
		return Record{}, fmt.Errorf("client: read session record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("client: decode session record: %w", err)
	}
	return rec, nil
}
