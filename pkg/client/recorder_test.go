package client_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/voxlate/voxlate/pkg/client"
)

func TestRecorder_SaveAndLoad(t *testing.T) {
	rec := client.NewRecorder(t.TempDir())

	want := client.Record{
		Title:               "monday lecture",
		Transcript:          []string{"good morning", "how are you"},
		Translation:         []string{"buenos dias", ""},
		TranslationLanguage: "es",
		EndedAt:             time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
	}
	if err := rec.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := rec.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestRecorder_SaveOverwritesPrevious(t *testing.T) {
	rec := client.NewRecorder(t.TempDir())

	first := client.Record{Transcript: []string{"old"}, Translation: []string{""}}
	if err := rec.Save(first); err != nil {
		t.Fatalf("Save first: %v", err)
	}
	second := client.Record{Transcript: []string{"new"}, Translation: []string{""}}
	if err := rec.Save(second); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	got, err := rec.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Transcript[0] != "new" {
		t.Errorf("transcript = %q, want overwritten value", got.Transcript)
	}
}

func TestRecorder_SaveFillsEndedAt(t *testing.T) {
	rec := client.NewRecorder(t.TempDir())

	before := time.Now()
	if err := rec.Save(client.Record{Transcript: []string{"x"}, Translation: []string{""}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := rec.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.EndedAt.Before(before.Truncate(time.Second)) {
		t.Errorf("EndedAt = %v, want >= %v", got.EndedAt, before)
	}
}

func TestRecorder_LoadMissingSnapshot(t *testing.T) {
	rec := client.NewRecorder(t.TempDir())

	_, err := rec.Load()
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestRecorder_PathIsStable(t *testing.T) {
	dir := t.TempDir()
	rec := client.NewRecorder(dir)

	if got, want := rec.Path(), filepath.Join(dir, "unsaved-session.json"); got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
}
