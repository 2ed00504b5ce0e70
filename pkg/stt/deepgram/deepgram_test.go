package deepgram_test

import (
	"net/url"
	"testing"

	"github.com/voxlate/voxlate/pkg/stt"
	"github.com/voxlate/voxlate/pkg/stt/deepgram"
)

func TestNew_EmptyAPIKey_ReturnsError(t *testing.T) {
	_, err := deepgram.New("")
	if err == nil {
		t.Fatal("expected error for empty apiKey, got nil")
	}
}

func TestNew_WithOptions_DoesNotError(t *testing.T) {
	r, err := deepgram.New("key",
		deepgram.WithModel("base"),
		deepgram.WithLanguage("de"),
		deepgram.WithSampleRate(8000),
		deepgram.WithEndpoint("ws://localhost:9999/v1/listen"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r == nil {
		t.Fatal("expected non-nil Recognizer")
	}
}

func TestBuildURL_IncludesStreamConfig(t *testing.T) {
	r, _ := deepgram.New("key", deepgram.WithModel("nova-3"))

	raw, err := r.BuildURL(stt.StreamConfig{
		SampleRate:     16000,
		Channels:       1,
		Language:       "en",
		InterimResults: true,
	})
	if err != nil {
		t.Fatalf("BuildURL: %v", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse built URL: %v", err)
	}
	q := u.Query()

	checks := map[string]string{
		"model":           "nova-3",
		"language":        "en",
		"sample_rate":     "16000",
		"channels":        "1",
		"interim_results": "true",
		"encoding":        "linear16",
	}
	for key, want := range checks {
		if got := q.Get(key); got != want {
			t.Errorf("query %s = %q, want %q", key, got, want)
		}
	}
}

func TestBuildURL_DefaultsApplyWhenConfigEmpty(t *testing.T) {
	r, _ := deepgram.New("key", deepgram.WithLanguage("fr"), deepgram.WithSampleRate(8000))

	raw, err := r.BuildURL(stt.StreamConfig{})
	if err != nil {
		t.Fatalf("BuildURL: %v", err)
	}
	u, _ := url.Parse(raw)
	q := u.Query()

	if got := q.Get("language"); got != "fr" {
		t.Errorf("language = %q, want %q", got, "fr")
	}
	if got := q.Get("sample_rate"); got != "8000" {
		t.Errorf("sample_rate = %q, want %q", got, "8000")
	}
	if got := q.Get("interim_results"); got != "false" {
		t.Errorf("interim_results = %q, want %q", got, "false")
	}
}

func TestParseResponse_ResultsMessage(t *testing.T) {
	data := []byte(`{
		"type": "Results",
		"is_final": true,
		"channel": {
			"alternatives": [
				{"transcript": "hello world", "confidence": 0.97}
			]
		}
	}`)

	res, ok := deepgram.ParseResponse(data)
	if !ok {
		t.Fatal("ParseResponse returned ok=false for a Results message")
	}
	if res.Text != "hello world" {
		t.Errorf("Text = %q, want %q", res.Text, "hello world")
	}
	if !res.IsFinal {
		t.Error("IsFinal = false, want true")
	}
	if res.Confidence != 0.97 {
		t.Errorf("Confidence = %v, want 0.97", res.Confidence)
	}
}

func TestParseResponse_IgnoresNonResults(t *testing.T) {
	if _, ok := deepgram.ParseResponse([]byte(`{"type":"Metadata"}`)); ok {
		t.Error("ParseResponse accepted a Metadata message")
	}
}

func TestParseResponse_IgnoresMalformedJSON(t *testing.T) {
	if _, ok := deepgram.ParseResponse([]byte(`{not json`)); ok {
		t.Error("ParseResponse accepted malformed JSON")
	}
}

func TestParseResponse_IgnoresEmptyAlternatives(t *testing.T) {
	data := []byte(`{"type":"Results","channel":{"alternatives":[]}}`)
	if _, ok := deepgram.ParseResponse(data); ok {
		t.Error("ParseResponse accepted a message with no alternatives")
	}
}
