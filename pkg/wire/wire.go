// Package wire defines the Voxlate WebSocket protocol: the closed set of
// JSON control messages a client may send and the closed set of tagged
// events a server may emit. It is the shared vocabulary of the transport
// server, the streaming session, and the client library.
//
// Control messages and events travel as text frames; audio travels as binary
// frames carrying raw PCM and is not represented here.
package wire

import (
	"encoding/json"
	"fmt"
)

// Client → server message types.
const (
	MsgStartTranscription    = "start-transcription"
	MsgStopTranscription     = "stop-transcription"
	MsgSetTargetLanguage     = "set-target-language"
	MsgSetTranslationEnabled = "set-translation-enabled"
)

// Server → client event types.
const (
	EventTranscript         = "transcript"
	EventTranslation        = "translation"
	EventTranscriptionError = "transcription-error"
	EventTranslationError   = "translation-error"
)

// ClientMessage is a control message from the client. Type selects the
// variant; the payload fields are variant-specific.
type ClientMessage struct {
	Type string `json:"type"`

	// Language is the target language code. Required for
	// [MsgSetTargetLanguage], ignored otherwise.
	Language string `json:"language,omitempty"`

	// Enabled toggles translation. Required for
	// [MsgSetTranslationEnabled], ignored otherwise.
	Enabled *bool `json:"enabled,omitempty"`
}

// Encode marshals the message for the wire.
func (m ClientMessage) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("wire: encode client message: %w", err)
	}
	return data, nil
}

// DecodeClientMessage parses and validates a client control message.
// Unknown types and variants missing their required payload are rejected.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var m ClientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ClientMessage{}, fmt.Errorf("wire: decode client message: %w", err)
	}

	switch m.Type {
	case MsgStartTranscription, MsgStopTranscription:
	case MsgSetTargetLanguage:
		if m.Language == "" {
			return ClientMessage{}, fmt.Errorf("wire: %s requires a language", m.Type)
		}
	case MsgSetTranslationEnabled:
		if m.Enabled == nil {
			return ClientMessage{}, fmt.Errorf("wire: %s requires an enabled flag", m.Type)
		}
	case "":
		return ClientMessage{}, fmt.Errorf("wire: client message has no type")
	default:
		return ClientMessage{}, fmt.Errorf("wire: unknown client message type %q", m.Type)
	}
	return m, nil
}

// TranscriptEvent carries one recognition result.
type TranscriptEvent struct {
	// Text is the recognised text.
	Text string `json:"text"`

	// IsFinal reports whether the utterance is closed.
	IsFinal bool `json:"isFinal"`

	// Confidence is the recognizer's confidence in [0, 1], when reported.
	Confidence float64 `json:"confidence,omitempty"`

	// Utterance is the session-assigned utterance index this result belongs
	// to. Finals for utterance n are always followed by results for n+1.
	Utterance int `json:"utterance"`
}

// TranslationEvent carries one translation result.
type TranslationEvent struct {
	// Original is the source text that was translated.
	Original string `json:"original"`

	// Translated is the translation.
	Translated string `json:"translated"`

	// TargetLanguage is the language the text was translated into.
	TargetLanguage string `json:"targetLanguage"`

	// DetectedSourceLanguage is the detected input language, if any.
	DetectedSourceLanguage string `json:"detectedSourceLanguage,omitempty"`

	// IsFinal mirrors the IsFinal flag of the transcript result that
	// triggered this translation.
	IsFinal bool `json:"isFinal"`

	// Utterance is the utterance index of the triggering transcript.
	Utterance int `json:"utterance"`
}

// ErrorEvent carries a human-readable failure description.
type ErrorEvent struct {
	Message string `json:"message"`
}

// ServerEvent is a tagged event from the server. Exactly one payload field
// matching Type is set.
type ServerEvent struct {
	Type string `json:"type"`

	Transcript  *TranscriptEvent  `json:"transcript,omitempty"`
	Translation *TranslationEvent `json:"translation,omitempty"`
	Error       *ErrorEvent       `json:"error,omitempty"`
}

// NewTranscriptEvent wraps a TranscriptEvent in its envelope.
func NewTranscriptEvent(ev TranscriptEvent) ServerEvent {
	return ServerEvent{Type: EventTranscript, Transcript: &ev}
}

// NewTranslationEvent wraps a TranslationEvent in its envelope.
func NewTranslationEvent(ev TranslationEvent) ServerEvent {
	return ServerEvent{Type: EventTranslation, Translation: &ev}
}

// NewTranscriptionError builds a transcription-error event.
func NewTranscriptionError(message string) ServerEvent {
	return ServerEvent{Type: EventTranscriptionError, Error: &ErrorEvent{Message: message}}
}

// NewTranslationError builds a translation-error event.
func NewTranslationError(message string) ServerEvent {
	return ServerEvent{Type: EventTranslationError, Error: &ErrorEvent{Message: message}}
}

// Encode marshals the event for the wire.
func (e ServerEvent) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("wire: encode server event: %w", err)
	}
	return data, nil
}

// DecodeServerEvent parses and validates a server event. The payload field
// must match the declared type; unknown types are rejected.
func DecodeServerEvent(data []byte) (ServerEvent, error) {
	var e ServerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return ServerEvent{}, fmt.Errorf("wire: decode server event: %w", err)
	}

	switch e.Type {
	case EventTranscript:
		if e.Transcript == nil {
			return ServerEvent{}, fmt.Errorf("wire: %s event has no transcript payload", e.Type)
		}
	case EventTranslation:
		if e.Translation == nil {
			return ServerEvent{}, fmt.Errorf("wire: %s event has no translation payload", e.Type)
		}
	case EventTranscriptionError, EventTranslationError:
		if e.Error == nil {
			return ServerEvent{}, fmt.Errorf("wire: %s event has no error payload", e.Type)
		}
	case "":
		return ServerEvent{}, fmt.Errorf("wire: server event has no type")
	default:
		return ServerEvent{}, fmt.Errorf("wire: unknown server event type %q", e.Type)
	}
	return e, nil
}
