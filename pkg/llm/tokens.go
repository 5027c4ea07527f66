package llm

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts tokens for one model's encoding, so the graph can
// trim conversation history before it overflows the model's context
// window instead of letting the provider reject an oversized request.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
	model    string
}

var (
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	encodingMu    sync.RWMutex
)

// NewTokenCounter builds a counter for model, falling back to cl100k_base
// when the model has no registered encoding (e.g. a local/non-OpenAI
// model name behind an OpenAI-compatible endpoint).
func NewTokenCounter(model string) (*TokenCounter, error) {
	encodingMu.RLock()
	cached, ok := encodingCache[model]
	encodingMu.RUnlock()
	if ok {
		return &TokenCounter{encoding: cached, model: model}, nil
	}

	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("llm: loading token encoding: %w", err)
		}
	}

	encodingMu.Lock()
	encodingCache[model] = encoding
	encodingMu.Unlock()
	return &TokenCounter{encoding: encoding, model: model}, nil
}

// Count returns the token count of a single message, including the
// per-message role/framing overhead OpenAI's chat format adds.
func (tc *TokenCounter) Count(m Message) int {
	const tokensPerMessage = 3
	return tokensPerMessage + len(tc.encoding.Encode(string(m.Role), nil, nil)) + len(tc.encoding.Encode(m.Content, nil, nil))
}

// FitWithinBudget drops messages from the front (oldest first) until the
// remaining history's token count is within maxTokens, always keeping at
// least the most recent message.
func (tc *TokenCounter) FitWithinBudget(messages []Message, maxTokens int) []Message {
	total := 3 // reply priming overhead
	for _, m := range messages {
		total += tc.Count(m)
	}
	start := 0
	for total > maxTokens && start < len(messages)-1 {
		total -= tc.Count(messages[start])
		start++
	}
	return messages[start:]
}
