// Package libre provides a translator backed by a LibreTranslate-compatible
// HTTP API (POST /translate with a JSON body). It implements the
// translate.Translator interface.
package libre

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voxlate/voxlate/pkg/translate"
)

const defaultTimeout = 10 * time.Second

// Compile-time assertion that Translator implements translate.Translator.
var _ translate.Translator = (*Translator)(nil)

// Option is a functional option for configuring the Translator.
type Option func(*Translator)

// WithAPIKey sets the API key sent with every request. Public
// LibreTranslate instances usually require one; self-hosted ones don't.
func WithAPIKey(key string) Option {
	return func(t *Translator) {
		t.apiKey = key
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 10 s.
func WithTimeout(d time.Duration) Option {
	return func(t *Translator) {
		t.httpClient.Timeout = d
	}
}

// Translator implements translate.Translator against a LibreTranslate
// server. Safe for concurrent use.
type Translator struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Translator for the LibreTranslate server at baseURL
// (e.g., "http://localhost:5000"). baseURL must be non-empty.
func New(baseURL string, opts ...Option) (*Translator, error) {
	if baseURL == "" {
		return nil, errors.New("libre: baseURL must not be empty")
	}
	t := &Translator{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// translateRequest is the JSON body for POST /translate.
type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

// translateResponse is the JSON body returned by POST /translate.
type translateResponse struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage *struct {
		Language   string  `json:"language"`
		Confidence float64 `json:"confidence"`
	} `json:"detectedLanguage"`
	Error string `json:"error"`
}

// Translate sends the text to the server and returns the translation.
// Empty text short-circuits to an empty result without a request.
func (t *Translator) Translate(ctx context.Context, text, targetLang, sourceLang string) (translate.Result, error) {
	if text == "" {
		return translate.Result{}, nil
	}
	if targetLang == "" {
		return translate.Result{}, errors.New("libre: targetLang must not be empty")
	}
	if sourceLang == "" {
		sourceLang = "auto"
	}

	payload, err := json.Marshal(translateRequest{
		Q:      text,
		Source: sourceLang,
		Target: targetLang,
		Format: "text",
		APIKey: t.apiKey,
	})
	if err != nil {
		return translate.Result{}, fmt.Errorf("libre: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/translate", bytes.NewReader(payload))
	if err != nil {
		return translate.Result{}, fmt.Errorf("libre: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return translate.Result{}, fmt.Errorf("libre: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return translate.Result{}, fmt.Errorf("libre: read response body: %w", err)
	}

	var parsed translateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return translate.Result{}, fmt.Errorf("libre: parse JSON response (HTTP %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := parsed.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return translate.Result{}, fmt.Errorf("libre: server returned HTTP %d: %s", resp.StatusCode, msg)
	}

	res := translate.Result{Text: parsed.TranslatedText}
	if parsed.DetectedLanguage != nil {
		res.DetectedSourceLanguage = parsed.DetectedLanguage.Language
	}
	return res, nil
}
