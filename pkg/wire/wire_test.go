package wire_test

import (
	"strings"
	"testing"

	"github.com/voxlate/voxlate/pkg/wire"
)

func TestDecodeClientMessage_Valid(t *testing.T) {
	tests := []struct {
		name string
		json string
		typ  string
	}{
		{"start", `{"type":"start-transcription"}`, wire.MsgStartTranscription},
		{"stop", `{"type":"stop-transcription"}`, wire.MsgStopTranscription},
		{"target language", `{"type":"set-target-language","language":"de"}`, wire.MsgSetTargetLanguage},
		{"translation toggle", `{"type":"set-translation-enabled","enabled":true}`, wire.MsgSetTranslationEnabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := wire.DecodeClientMessage([]byte(tt.json))
			if err != nil {
				t.Fatalf("DecodeClientMessage: %v", err)
			}
			if m.Type != tt.typ {
				t.Errorf("Type = %q, want %q", m.Type, tt.typ)
			}
		})
	}
}

func TestDecodeClientMessage_Rejects(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"unknown type", `{"type":"self-destruct"}`},
		{"missing type", `{"language":"de"}`},
		{"target language without language", `{"type":"set-target-language"}`},
		{"toggle without flag", `{"type":"set-translation-enabled"}`},
		{"malformed json", `{"type":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := wire.DecodeClientMessage([]byte(tt.json)); err == nil {
				t.Errorf("DecodeClientMessage accepted %s", tt.json)
			}
		})
	}
}

func TestClientMessage_EncodeDecodeRoundTrip(t *testing.T) {
	enabled := false
	in := wire.ClientMessage{Type: wire.MsgSetTranslationEnabled, Enabled: &enabled}
	data, err := in.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := wire.DecodeClientMessage(data)
	if err != nil {
		t.Fatalf("DecodeClientMessage: %v", err)
	}
	if out.Enabled == nil || *out.Enabled != false {
		t.Error("enabled=false did not survive the round trip")
	}
}

func TestDecodeServerEvent_Transcript(t *testing.T) {
	ev := wire.NewTranscriptEvent(wire.TranscriptEvent{
		Text:       "hello world",
		IsFinal:    true,
		Confidence: 0.9,
		Utterance:  3,
	})
	data, err := ev.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := wire.DecodeServerEvent(data)
	if err != nil {
		t.Fatalf("DecodeServerEvent: %v", err)
	}
	if got.Type != wire.EventTranscript {
		t.Errorf("Type = %q, want %q", got.Type, wire.EventTranscript)
	}
	if got.Transcript == nil {
		t.Fatal("Transcript payload is nil")
	}
	if got.Transcript.Text != "hello world" || !got.Transcript.IsFinal || got.Transcript.Utterance != 3 {
		t.Errorf("unexpected payload: %+v", got.Transcript)
	}
}

func TestDecodeServerEvent_Translation(t *testing.T) {
	ev := wire.NewTranslationEvent(wire.TranslationEvent{
		Original:       "hello",
		Translated:     "hola",
		TargetLanguage: "es",
		IsFinal:        false,
		Utterance:      1,
	})
	data, _ := ev.Encode()

	got, err := wire.DecodeServerEvent(data)
	if err != nil {
		t.Fatalf("DecodeServerEvent: %v", err)
	}
	if got.Translation == nil || got.Translation.Translated != "hola" {
		t.Errorf("unexpected payload: %+v", got.Translation)
	}
}

func TestDecodeServerEvent_Errors(t *testing.T) {
	for _, build := range []func(string) wire.ServerEvent{
		wire.NewTranscriptionError,
		wire.NewTranslationError,
	} {
		ev := build("provider exploded")
		data, _ := ev.Encode()
		got, err := wire.DecodeServerEvent(data)
		if err != nil {
			t.Fatalf("DecodeServerEvent(%s): %v", ev.Type, err)
		}
		if got.Error == nil || got.Error.Message != "provider exploded" {
			t.Errorf("%s: unexpected payload: %+v", ev.Type, got.Error)
		}
	}
}

func TestDecodeServerEvent_Rejects(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"unknown type", `{"type":"jackpot"}`},
		{"missing type", `{"transcript":{"text":"x"}}`},
		{"transcript without payload", `{"type":"transcript"}`},
		{"translation without payload", `{"type":"translation"}`},
		{"error without payload", `{"type":"transcription-error"}`},
		{"malformed json", `{"type":"transcript"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wire.DecodeServerEvent([]byte(tt.json))
			if err == nil {
				t.Errorf("DecodeServerEvent accepted %s", tt.json)
			}
			if err != nil && !strings.Contains(err.Error(), "wire:") {
				t.Errorf("error %v is missing the package prefix", err)
			}
		})
	}
}
