package embedding

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokenEncoding is the BPE used by the OpenAI embedding models.
const tokenEncoding = "cl100k_base"

// tokenTruncator cuts input down to a token budget.
// The encoding is loaded on first use; if it cannot be loaded, text passes through unchanged.
type tokenTruncator struct {
	maxTokens int
	logger    *slog.Logger

	once sync.Once
	enc  *tiktoken.Tiktoken
}

func newTokenTruncator(maxTokens int, logger *slog.Logger) *tokenTruncator {
	return &tokenTruncator{maxTokens: maxTokens, logger: logger}
}

// Truncate returns text limited to maxTokens tokens.
func (t *tokenTruncator) Truncate(text string) string {
	// A token covers at least one byte, so short inputs never need encoding.
	if len(text) <= t.maxTokens {
		return text
	}

	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(tokenEncoding)
		if err != nil {
			t.logger.Warn("token encoding unavailable, input will not be truncated", "encoding", tokenEncoding, "error", err)
			return
		}
		t.enc = enc
	})
	if t.enc == nil {
		return text
	}

	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= t.maxTokens {
		return text
	}
	t.logger.Debug("truncating embedding input", "tokens", len(tokens), "max_tokens", t.maxTokens)
	return t.enc.Decode(tokens[:t.maxTokens])
}
