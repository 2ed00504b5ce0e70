// Package store persists finished sessions as lectures. A client works on a
// local unsaved snapshot; promoting it through the HTTP API creates a
// Lecture here, optionally enriched with a summary, keywords, and review
// questions.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by operations that require an existing lecture.
var ErrNotFound = errors.New("store: lecture not found")

// Status is the lifecycle state of a stored lecture.
type Status string

const (
	// StatusDraft marks a lecture that was promoted but not yet reviewed.
	StatusDraft Status = "draft"

	// StatusSaved marks a reviewed, kept lecture.
	StatusSaved Status = "saved"

	// StatusArchived marks a lecture hidden from default listings.
	StatusArchived Status = "archived"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSaved, StatusArchived:
		return true
	}
	return false
}

// Lecture is a persisted session: the parallel transcript and translation
// line buffers plus optional AI enrichment.
type Lecture struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Transcript          []string  `json:"transcript"`
	Translation         []string  `json:"translation"`
	TranslationLanguage string    `json:"translationLanguage,omitempty"`
	Summary             string    `json:"summary,omitempty"`
	Keywords            []string  `json:"keywords,omitempty"`
	Questions           []string  `json:"questions,omitempty"`
	Status              Status    `json:"status"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Validate checks the invariants required before persisting a lecture.
func (l *Lecture) Validate() error {
	var errs []error
	if l.Title == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if len(l.Transcript) == 0 {
		errs = append(errs, errors.New("transcript must not be empty"))
	}
	if len(l.Translation) != 0 && len(l.Translation) != len(l.Transcript) {
		errs = append(errs, fmt.Errorf("translation has %d lines, transcript has %d",
			len(l.Translation), len(l.Transcript)))
	}
	if l.Status != "" && !l.Status.IsValid() {
		errs = append(errs, fmt.Errorf("unknown status %q", l.Status))
	}
	if len(errs) > 0 {
		return fmt.Errorf("store: invalid lecture: %w", errors.Join(errs...))
	}
	return nil
}

// Enrichment is the AI-generated study material attached to a lecture.
type Enrichment struct {
	Summary   string   `json:"summary"`
	Keywords  []string `json:"keywords"`
	Questions []string `json:"questions"`
}

// Store persists lectures.
type Store interface {
	// Create persists a new lecture and fills in ID, CreatedAt, and
	// UpdatedAt. An empty Status defaults to draft.
	Create(ctx context.Context, l *Lecture) error

	// Get returns the lecture with the given ID, or (nil, nil) when it does
	// not exist.
	Get(ctx context.Context, id string) (*Lecture, error)

	// List returns lectures newest first. A non-empty status filters the
	// result.
	List(ctx context.Context, status Status) ([]Lecture, error)

	// UpdateStatus moves a lecture to the given status. Returns an error
	// when the lecture does not exist.
	UpdateStatus(ctx context.Context, id string, status Status) error

	// UpdateEnrichment attaches AI-generated material to a lecture. Returns
	// an error when the lecture does not exist.
	UpdateEnrichment(ctx context.Context, id string, e Enrichment) error

	// Delete removes a lecture. Deleting a missing lecture is not an error.
	Delete(ctx context.Context, id string) error
}
