package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChatCompletion(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		model  string
		stream bool
	}{
		{"full request", `{"model":"m","messages":[{"role":"user","content":"hi"}],"stream":true}`, "m", true},
		{"model only", `{"model":"m"}`, "m", false},
		{"empty messages", `{"model":"m","messages":[]}`, "m", false},
		{"message without role", `{"model":"m","messages":[{"content":"hi"}]}`, "m", false},
		{"stream as string", `{"model":"m","stream":"yes"}`, "m", false},
		{"numeric model", `{"model":7}`, "", false},
		{"no model", `{"messages":[]}`, "", false},
		{"empty object", `{}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseChatCompletion([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.model, req.Model)
			assert.Equal(t, tt.stream, req.Stream)
			assert.Equal(t, tt.body, string(req.Raw))
		})
	}
}

func TestParseChatCompletion_RejectsNonObjects(t *testing.T) {
	for _, body := range []string{``, `not json`, `[1]`, `null`, `"model"`, `model=x`, `{"model":"m"`} {
		_, err := ParseChatCompletion([]byte(body))
		assert.ErrorIs(t, err, ErrBodyNotObject, "body %q", body)
	}
}
