// Package translate defines the text translation boundary used by the
// streaming session. The libre subpackage implements it against a
// LibreTranslate-compatible HTTP API; mock provides a test double.
package translate

import "context"

// Result is the outcome of a single translation request.
type Result struct {
	// Text is the translated text.
	Text string

	// DetectedSourceLanguage is the language the provider detected for the
	// input, when the request used automatic detection. Empty otherwise.
	DetectedSourceLanguage string
}

// Translator translates a piece of text in a single request/response
// exchange. Implementations must be safe for concurrent use; the session
// issues translation requests from multiple goroutines.
type Translator interface {
	// Translate translates text into targetLang. sourceLang is a hint;
	// "auto" (or empty) requests automatic source detection where the
	// provider supports it.
	Translate(ctx context.Context, text, targetLang, sourceLang string) (Result, error)
}
