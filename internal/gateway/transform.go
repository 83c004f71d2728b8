package gateway

import (
	"errors"

	"github.com/nulzo/prism-local/internal/registry"
	"github.com/tidwall/sjson"
)

const (
	DefaultLocalEngine = "nitro"
	DefaultBackendTag  = "cortex.llamacpp"
)

// EngineConfig names the on-device engine and the backend tag the runtime
// expects for models that use it.
type EngineConfig struct {
	LocalEngine string
	BackendTag  string
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.LocalEngine == "" {
		c.LocalEngine = DefaultLocalEngine
	}
	if c.BackendTag == "" {
		c.BackendTag = DefaultBackendTag
	}
	return c
}

var errEmptyPayload = errors.New("empty request payload")

// ShapePayload returns the body to send to the runtime. Models served by
// the local engine get a top-level "engine" field set to the backend tag;
// every other payload is returned byte for byte.
func ShapePayload(raw []byte, model registry.ModelDescriptor, cfg EngineConfig) ([]byte, error) {
	if len(raw) == 0 {
		return nil, errEmptyPayload
	}

	cfg = cfg.withDefaults()
	if model.Engine != cfg.LocalEngine {
		return raw, nil
	}

	// sjson appends new keys after the existing ones
	return sjson.SetBytes(raw, "engine", cfg.BackendTag)
}
