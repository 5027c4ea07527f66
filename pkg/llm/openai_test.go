package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToOpenAIMessages(t *testing.T) {
	msgs := []Message{
		{Role: RoleSystem, Content: "be terse"},
		{Role: RoleUser, Content: "hi"},
	}
	out := toOpenAIMessages(msgs)
	assert.Len(t, out, 2)
	assert.Equal(t, "system", out[0].Role)
	assert.Equal(t, "be terse", out[0].Content)
	assert.Equal(t, "user", out[1].Role)
}
