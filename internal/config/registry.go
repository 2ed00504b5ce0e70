package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/voxlate/voxlate/internal/ai"
	"github.com/voxlate/voxlate/pkg/stt"
	"github.com/voxlate/voxlate/pkg/translate"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	recognizers map[string]func(ProviderEntry) (stt.Recognizer, error)
	translators map[string]func(ProviderEntry) (translate.Translator, error)
	summarizers map[string]func(ProviderEntry) (ai.Summarizer, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		recognizers: make(map[string]func(ProviderEntry) (stt.Recognizer, error)),
		translators: make(map[string]func(ProviderEntry) (translate.Translator, error)),
		summarizers: make(map[string]func(ProviderEntry) (ai.Summarizer, error)),
	}
}

// RegisterRecognizer registers a recognizer factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterRecognizer(name string, factory func(ProviderEntry) (stt.Recognizer, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recognizers[name] = factory
}

// RegisterTranslator registers a translator factory under name.
func (r *Registry) RegisterTranslator(name string, factory func(ProviderEntry) (translate.Translator, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.translators[name] = factory
}

// RegisterSummarizer registers a summarizer factory under name.
func (r *Registry) RegisterSummarizer(name string, factory func(ProviderEntry) (ai.Summarizer, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summarizers[name] = factory
}

// CreateRecognizer instantiates a recognizer using the factory registered under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for that name.
func (r *Registry) CreateRecognizer(entry ProviderEntry) (stt.Recognizer, error) {
	r.mu.RLock()
	factory, ok := r.recognizers[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: recognizer/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateTranslator instantiates a translator using the factory registered under entry.Name.
func (r *Registry) CreateTranslator(entry ProviderEntry) (translate.Translator, error) {
	r.mu.RLock()
	factory, ok := r.translators[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: translator/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateSummarizer instantiates a summarizer using the factory registered under entry.Name.
func (r *Registry) CreateSummarizer(entry ProviderEntry) (ai.Summarizer, error) {
	r.mu.RLock()
	factory, ok := r.summarizers[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: ai/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
