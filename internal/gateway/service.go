package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/nulzo/prism-local/internal/inference"
	"github.com/nulzo/prism-local/internal/registry"
	"github.com/nulzo/prism-local/pkg/api"
	"go.uber.org/zap"
)

// Catalog is the view of the model registry the gateway needs.
type Catalog interface {
	Load(ctx context.Context, cfg registry.Configuration) []registry.ModelDescriptor
	Delete(ctx context.Context, cfg registry.Configuration, id string) (*registry.DeleteResult, error)
}

// Runtime is the local inference runtime.
type Runtime interface {
	ChatCompletion(ctx context.Context, body []byte) (*inference.Response, error)
	Health(ctx context.Context) error
}

// Service validates completion requests against the installed models and
// forwards them to the runtime.
type Service interface {
	ChatCompletion(ctx context.Context, req *api.ChatCompletionRequest) (*Completion, error)
	ListModels(ctx context.Context) []registry.ModelDescriptor
	GetModel(ctx context.Context, id string) (registry.ModelDescriptor, error)
	DeleteModel(ctx context.Context, id string) (*api.DeleteModelResponse, error)
	RuntimeHealth(ctx context.Context) error
}

// Completion is an accepted request: the model it resolved to and the open
// runtime response. The caller must close Response.Body.
type Completion struct {
	Model    registry.ModelDescriptor
	Response *inference.Response
}

type service struct {
	logger  *zap.Logger
	catalog Catalog
	runtime Runtime
	models  registry.Configuration
	engine  EngineConfig
}

func NewService(logger *zap.Logger, catalog Catalog, runtime Runtime, models registry.Configuration, engine EngineConfig) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		logger:  logger,
		catalog: catalog,
		runtime: runtime,
		models:  models,
		engine:  engine.withDefaults(),
	}
}

func (s *service) ChatCompletion(ctx context.Context, req *api.ChatCompletionRequest) (*Completion, error) {
	// fresh snapshot per request
	descriptor, ok := find(s.catalog.Load(ctx, s.models), req.Model)
	if !ok {
		return nil, api.ModelNotFound(req.Model)
	}

	payload, err := ShapePayload(req.Raw, descriptor, s.engine)
	if err != nil {
		return nil, api.InternalError("Failed to prepare request for the inference runtime", err)
	}

	resp, err := s.runtime.ChatCompletion(ctx, payload)
	if err != nil {
		var te *inference.TransportError
		if errors.As(err, &te) {
			return nil, api.BackendUnavailable(err)
		}
		return nil, api.InternalError("Failed to reach the inference runtime", err)
	}

	if !resp.OK() {
		s.logger.Warn("inference runtime returned non-2xx status",
			zap.String("model", descriptor.ID),
			zap.Int("status", resp.StatusCode),
		)
	}

	return &Completion{Model: descriptor, Response: resp}, nil
}

func (s *service) ListModels(ctx context.Context) []registry.ModelDescriptor {
	return s.catalog.Load(ctx, s.models)
}

func (s *service) GetModel(ctx context.Context, id string) (registry.ModelDescriptor, error) {
	d, ok := find(s.catalog.Load(ctx, s.models), id)
	if !ok {
		return registry.ModelDescriptor{}, api.ModelNotFound(id)
	}
	return d, nil
}

func (s *service) DeleteModel(ctx context.Context, id string) (*api.DeleteModelResponse, error) {
	res, err := s.catalog.Delete(ctx, s.models, id)
	if err != nil {
		if errors.Is(err, registry.ErrModelNotFound) {
			return nil, api.ModelNotFound(id)
		}
		return nil, api.InternalError(fmt.Sprintf("Failed to delete model %s", id), err)
	}

	return &api.DeleteModelResponse{ID: res.ID, Object: res.Object, Deleted: res.Deleted}, nil
}

func (s *service) RuntimeHealth(ctx context.Context) error {
	return s.runtime.Health(ctx)
}

// find never matches an empty id, records without a string id are unreachable.
func find(catalog []registry.ModelDescriptor, id string) (registry.ModelDescriptor, bool) {
	if id == "" {
		return registry.ModelDescriptor{}, false
	}
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return registry.ModelDescriptor{}, false
}
