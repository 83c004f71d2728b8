package gateway

import (
	"testing"

	"github.com/nulzo/prism-local/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapePayload(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		engine string
		want   string
	}{
		{
			name:   "local engine gets backend tag",
			raw:    `{"model":"m","messages":[],"temperature":0.2}`,
			engine: "nitro",
			want:   `{"model":"m","messages":[],"temperature":0.2,"engine":"cortex.llamacpp"}`,
		},
		{
			name:   "caller supplied engine is overwritten for local models",
			raw:    `{"model":"m","engine":"whatever"}`,
			engine: "nitro",
			want:   `{"model":"m","engine":"cortex.llamacpp"}`,
		},
		{
			name:   "remote engine untouched",
			raw:    `{"model":"m", "stream": true}`,
			engine: "openai",
			want:   `{"model":"m", "stream": true}`,
		},
		{
			name:   "absent engine untouched",
			raw:    `{"model":"m"}`,
			engine: "",
			want:   `{"model":"m"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ShapePayload([]byte(tt.raw), registry.ModelDescriptor{ID: "m", Engine: tt.engine}, EngineConfig{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestShapePayload_DoesNotMutateInput(t *testing.T) {
	raw := []byte(`{"model":"m"}`)
	_, err := ShapePayload(raw, registry.ModelDescriptor{Engine: "nitro"}, EngineConfig{})
	require.NoError(t, err)
	assert.Equal(t, `{"model":"m"}`, string(raw))
}

func TestShapePayload_Empty(t *testing.T) {
	_, err := ShapePayload(nil, registry.ModelDescriptor{}, EngineConfig{})
	assert.Error(t, err)
}
