// Package mock provides a test double for the translate.Translator
// interface. It records every call and can script per-call behaviour.
package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/voxlate/voxlate/pkg/translate"
)

// TranslateCall records a single invocation of Translator.Translate.
type TranslateCall struct {
	// Text is the text passed to Translate.
	Text string
	// TargetLang is the target language passed to Translate.
	TargetLang string
	// SourceLang is the source language hint passed to Translate.
	SourceLang string
}

// Translator is a mock implementation of translate.Translator.
//
// By default every call succeeds and returns the input text prefixed with
// the target language (e.g. "es:hello world"), which keeps assertions
// readable. Set Err to make calls fail, or TranslateFn to script arbitrary
// behaviour.
type Translator struct {
	mu sync.Mutex

	// Err, if non-nil, is returned by every Translate call.
	Err error

	// TranslateFn, if set, overrides the default behaviour entirely.
	TranslateFn func(ctx context.Context, text, targetLang, sourceLang string) (translate.Result, error)

	// Calls records every Translate invocation in order.
	Calls []TranslateCall
}

// Translate records the call and returns the scripted result.
func (t *Translator) Translate(ctx context.Context, text, targetLang, sourceLang string) (translate.Result, error) {
	t.mu.Lock()
	t.Calls = append(t.Calls, TranslateCall{Text: text, TargetLang: targetLang, SourceLang: sourceLang})
	fn := t.TranslateFn
	err := t.Err
	t.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, targetLang, sourceLang)
	}
	if err != nil {
		return translate.Result{}, err
	}
	return translate.Result{
		Text:                   targetLang + ":" + strings.TrimSpace(text),
		DetectedSourceLanguage: sourceLang,
	}, nil
}

// CallCount returns the number of Translate calls. Thread-safe.
func (t *Translator) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Calls)
}

// LastCall returns the most recent call, or a zero value when none were
// made. Thread-safe.
func (t *Translator) LastCall() TranslateCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.Calls) == 0 {
		return TranslateCall{}
	}
	return t.Calls[len(t.Calls)-1]
}

// ResetCalls clears all recorded calls. Thread-safe.
func (t *Translator) ResetCalls() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = nil
}

// Ensure Translator implements translate.Translator at compile time.
var _ translate.Translator = (*Translator)(nil)
