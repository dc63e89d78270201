// Package tokenizer provides token and word counting for request accounting.
package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens and words in the text exchanged with the upstream.
type Tokenizer interface {
	// CountTokens counts tokens in a text string.
	CountTokens(text string) (int, error)

	// CountWords counts whitespace-separated words.
	CountWords(text string) int
}

// EncodingCL100kBase is the tiktoken encoding used for Grok traffic.
// Grok's own tokenizer is not public; cl100k_base is a close estimate.
const EncodingCL100kBase = "cl100k_base"

// TiktokenTokenizer implements Tokenizer using tiktoken-go.
type TiktokenTokenizer struct {
	mu        sync.RWMutex
	encodings map[string]*tiktoken.Tiktoken
	encoding  string
}

// New creates a new TiktokenTokenizer.
func New() *TiktokenTokenizer {
	return &TiktokenTokenizer{
		encodings: make(map[string]*tiktoken.Tiktoken),
		encoding:  EncodingCL100kBase,
	}
}

// getEncoding returns the tiktoken encoding, loading it on first use.
func (t *TiktokenTokenizer) getEncoding() (*tiktoken.Tiktoken, error) {
	// Check cache first
	t.mu.RLock()
	enc, ok := t.encodings[t.encoding]
	t.mu.RUnlock()
	if ok {
		return enc, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Double-check after acquiring write lock
	if enc, ok = t.encodings[t.encoding]; ok {
		return enc, nil
	}

	enc, err := tiktoken.GetEncoding(t.encoding)
	if err != nil {
		return nil, err
	}
	t.encodings[t.encoding] = enc
	return enc, nil
}

// CountTokens counts tokens in a text string.
func (t *TiktokenTokenizer) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	enc, err := t.getEncoding()
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// CountWords counts whitespace-separated words. Empty text has zero words.
func (t *TiktokenTokenizer) CountWords(text string) int {
	return len(strings.Fields(text))
}
