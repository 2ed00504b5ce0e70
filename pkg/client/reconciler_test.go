package client_test

import (
	"reflect"
	"testing"

	"github.com/voxlate/voxlate/pkg/client"
	"github.com/voxlate/voxlate/pkg/wire"
)

func finalTranscript(utterance int, text string) wire.ServerEvent {
	return wire.NewTranscriptEvent(wire.TranscriptEvent{
		Text: text, IsFinal: true, Utterance: utterance,
	})
}

func interimTranscript(utterance int, text string) wire.ServerEvent {
	return wire.NewTranscriptEvent(wire.TranscriptEvent{
		Text: text, Utterance: utterance,
	})
}

func finalTranslation(utterance int, text string) wire.ServerEvent {
	return wire.NewTranslationEvent(wire.TranslationEvent{
		Translated: text, IsFinal: true, Utterance: utterance,
	})
}

func interimTranslation(utterance int, text string) wire.ServerEvent {
	return wire.NewTranslationEvent(wire.TranslationEvent{
		Translated: text, Utterance: utterance,
	})
}

func TestReconciler_BuffersStayEqualLength(t *testing.T) {
	tests := []struct {
		name   string
		events []wire.ServerEvent
	}{
		{
			name: "transcripts only",
			events: []wire.ServerEvent{
				finalTranscript(0, "one"),
				finalTranscript(1, "two"),
			},
		},
		{
			name: "translation trails transcript",
			events: []wire.ServerEvent{
				finalTranscript(0, "one"),
				finalTranscript(1, "two"),
				finalTranslation(0, "uno"),
			},
		},
		{
			name: "translation ahead of transcript",
			events: []wire.ServerEvent{
				finalTranslation(1, "dos"),
			},
		},
		{
			name: "interleaved",
			events: []wire.ServerEvent{
				interimTranscript(0, "on"),
				finalTranscript(0, "one"),
				interimTranslation(0, "un"),
				finalTranscript(1, "two"),
				finalTranslation(0, "uno"),
				finalTranslation(1, "dos"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := client.NewReconciler()
			for _, ev := range tt.events {
				r.Apply(ev)
			}
			transcript, translation := r.Snapshot()
			if len(transcript) != len(translation) {
				t.Errorf("buffer lengths differ: transcript %d, translation %d",
					len(transcript), len(translation))
			}
		})
	}
}

func TestReconciler_LateTranslationAlignsWithUtterance(t *testing.T) {
	r := client.NewReconciler()

	r.Apply(finalTranscript(0, "good morning"))
	r.Apply(finalTranscript(1, "how are you"))
	// The translation for utterance 0 finishes after utterance 1's transcript.
	r.Apply(finalTranslation(0, "buenos dias"))

	transcript, translation := r.Snapshot()
	if !reflect.DeepEqual(transcript, []string{"good morning", "how are you"}) {
		t.Errorf("transcript = %q", transcript)
	}
	if !reflect.DeepEqual(translation, []string{"buenos dias", ""}) {
		t.Errorf("translation = %q", translation)
	}
}

func TestReconciler_ReplayIsIdempotent(t *testing.T) {
	events := []wire.ServerEvent{
		interimTranscript(0, "good"),
		finalTranscript(0, "good morning"),
		finalTranslation(0, "buenos dias"),
		finalTranscript(1, "how are you"),
	}

	r := client.NewReconciler()
	for _, ev := range events {
		r.Apply(ev)
	}
	firstTranscript, firstTranslation := r.Snapshot()

	// Replaying the whole stream must not change anything.
	for _, ev := range events {
		r.Apply(ev)
	}
	transcript, translation := r.Snapshot()

	if !reflect.DeepEqual(transcript, firstTranscript) {
		t.Errorf("transcript changed on replay: %q -> %q", firstTranscript, transcript)
	}
	if !reflect.DeepEqual(translation, firstTranslation) {
		t.Errorf("translation changed on replay: %q -> %q", firstTranslation, translation)
	}
}

func TestReconciler_InterimOverwritesInterim(t *testing.T) {
	r := client.NewReconciler()

	r.Apply(interimTranscript(0, "good"))
	r.Apply(interimTranscript(0, "good mor"))
	r.Apply(interimTranscript(0, "good morning"))

	if got := r.Display(client.TabTranscript); got != "[good morning]" {
		t.Errorf("display = %q", got)
	}

	r.Apply(finalTranscript(0, "good morning"))
	if got := r.Display(client.TabTranscript); got != "good morning" {
		t.Errorf("display after final = %q", got)
	}
}

func TestReconciler_SeekClampsAndTogglesFollow(t *testing.T) {
	r := client.NewReconciler()
	r.Apply(finalTranscript(0, "one"))
	r.Apply(finalTranscript(1, "two"))
	r.Apply(finalTranscript(2, "three"))

	if !r.Follow() {
		t.Fatal("expected follow after appends")
	}
	if got := r.Cursor(); got != 3 {
		t.Fatalf("cursor = %d, want 3", got)
	}

	r.Seek(-2)
	if r.Follow() {
		t.Error("expected follow off after seeking back")
	}
	if got := r.Cursor(); got != 1 {
		t.Errorf("cursor = %d, want 1", got)
	}

	r.Seek(-10)
	if got := r.Cursor(); got != 0 {
		t.Errorf("cursor = %d, want 0 (clamped)", got)
	}

	r.Seek(10)
	if got := r.Cursor(); got != 3 {
		t.Errorf("cursor = %d, want 3 (clamped)", got)
	}
	if !r.Follow() {
		t.Error("expected follow after seeking to the end")
	}
}

func TestReconciler_CursorHoldsWhileNotFollowing(t *testing.T) {
	r := client.NewReconciler()
	r.Apply(finalTranscript(0, "one"))
	r.Apply(finalTranscript(1, "two"))

	r.Seek(-1)

	// New lines arrive while the user reads older text.
	r.Apply(finalTranscript(2, "three"))
	if got := r.Cursor(); got != 1 {
		t.Errorf("cursor = %d, want 1", got)
	}
	if got := r.Display(client.TabTranscript); got != "one" {
		t.Errorf("display = %q, want %q", got, "one")
	}

	r.SetFollow(true)
	if got := r.Cursor(); got != 3 {
		t.Errorf("cursor = %d, want 3", got)
	}
}

func TestReconciler_DisplayPerTab(t *testing.T) {
	r := client.NewReconciler()
	r.Apply(finalTranscript(0, "good morning"))
	r.Apply(finalTranslation(0, "buenos dias"))
	r.Apply(finalTranscript(1, "how are you"))
	r.Apply(interimTranslation(1, "como"))

	if got := r.Display(client.TabTranscript); got != "good morning\nhow are you" {
		t.Errorf("transcript display = %q", got)
	}
	want := "buenos dias\n\n[como]"
	if got := r.Display(client.TabTranslation); got != want {
		t.Errorf("translation display = %q, want %q", got, want)
	}
}

func TestReconciler_ErrorEventsIgnored(t *testing.T) {
	r := client.NewReconciler()
	r.Apply(wire.NewTranscriptionError("boom"))
	r.Apply(wire.NewTranslationError("boom"))

	if got := r.Lines(); got != 0 {
		t.Errorf("lines = %d, want 0", got)
	}
}
