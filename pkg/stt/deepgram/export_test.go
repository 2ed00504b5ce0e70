package deepgram

import "github.com/voxlate/voxlate/pkg/stt"

// Test hooks for unexported internals.

func ParseResponse(data []byte) (stt.Result, bool) {
	return parseResponse(data)
}

func (r *Recognizer) BuildURL(cfg stt.StreamConfig) (string, error) {
	return r.buildURL(cfg)
}
