package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nulzo/prism-local/internal/inference"
	"github.com/nulzo/prism-local/internal/registry"
	"github.com/nulzo/prism-local/pkg/api"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRuntime implements Runtime for testing
type MockRuntime struct {
	mock.Mock
}

func (m *MockRuntime) ChatCompletion(ctx context.Context, body []byte) (*inference.Response, error) {
	args := m.Called(ctx, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inference.Response), args.Error(1)
}

func (m *MockRuntime) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var modelsConfig = registry.Configuration{
	DirName:          "models",
	MetadataFileName: "model.json",
	Delete:           registry.DeleteConfig{Object: "model"},
}

func newCatalog(t *testing.T) *registry.Loader {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/data/models/model1/model.json": `{"id":"model1","name":"Test Model 1","engine":"nitro","delete":{"object":"test"}}`,
		"/data/models/model2/model.json": `{"id":"model2","name":"Test Model 2","engine":"openai"}`,
		"/data/models/model3/model.json": `{"id":"model3","name":"No Engine"}`,
		"/data/models/model4/model.json": `{"id":4,"engine":"nitro"}`,
		"/data/models/.DS_Store":         "junk",
	}
	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return registry.NewLoader(fs, "/data", nil)
}

func okResponse(body string) *inference.Response {
	return &inference.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func chatRequest(model string) *api.ChatCompletionRequest {
	raw := `{"model":"` + model + `","messages":[{"role":"user","content":"Hello"}]}`
	return &api.ChatCompletionRequest{
		Model: model,
		Raw:   []byte(raw),
	}
}

func TestChatCompletion_ModelNotFound(t *testing.T) {
	rt := new(MockRuntime)
	svc := NewService(nil, newCatalog(t), rt, modelsConfig, EngineConfig{})

	_, err := svc.ChatCompletion(context.Background(), chatRequest("test-model"))
	require.Error(t, err)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "The model test-model does not exist", apiErr.Message)
	assert.Equal(t, "invalid_request_error", apiErr.Type)
	assert.Nil(t, apiErr.Param)
	require.NotNil(t, apiErr.Code)
	assert.Equal(t, "model_not_found", *apiErr.Code)

	rt.AssertNotCalled(t, "ChatCompletion", mock.Anything, mock.Anything)
}

func TestChatCompletion_EmptyModelNeverMatches(t *testing.T) {
	rt := new(MockRuntime)
	svc := NewService(nil, newCatalog(t), rt, modelsConfig, EngineConfig{})

	_, err := svc.ChatCompletion(context.Background(), &api.ChatCompletionRequest{Raw: []byte(`{"model":4}`)})

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	rt.AssertNotCalled(t, "ChatCompletion", mock.Anything, mock.Anything)
}

func TestChatCompletion_LocalEngineInjectsBackendTag(t *testing.T) {
	rt := new(MockRuntime)
	rt.On("ChatCompletion", mock.Anything, mock.Anything).Return(okResponse(`{"success":true}`), nil)

	svc := NewService(nil, newCatalog(t), rt, modelsConfig, EngineConfig{})

	completion, err := svc.ChatCompletion(context.Background(), chatRequest("model1"))
	require.NoError(t, err)
	assert.Equal(t, "model1", completion.Model.ID)

	sent := rt.Calls[0].Arguments.Get(1).([]byte)
	assert.Equal(t,
		`{"model":"model1","messages":[{"role":"user","content":"Hello"}],"engine":"cortex.llamacpp"}`,
		string(sent),
	)
}

func TestChatCompletion_OtherEnginesForwardUnchanged(t *testing.T) {
	for _, model := range []string{"model2", "model3"} {
		t.Run(model, func(t *testing.T) {
			rt := new(MockRuntime)
			rt.On("ChatCompletion", mock.Anything, mock.Anything).Return(okResponse(`{}`), nil)

			svc := NewService(nil, newCatalog(t), rt, modelsConfig, EngineConfig{})
			req := chatRequest(model)

			_, err := svc.ChatCompletion(context.Background(), req)
			require.NoError(t, err)

			sent := rt.Calls[0].Arguments.Get(1).([]byte)
			assert.Equal(t, string(req.Raw), string(sent))
		})
	}
}

func TestChatCompletion_CustomEngineConfig(t *testing.T) {
	rt := new(MockRuntime)
	rt.On("ChatCompletion", mock.Anything, mock.Anything).Return(okResponse(`{}`), nil)

	svc := NewService(nil, newCatalog(t), rt, modelsConfig, EngineConfig{LocalEngine: "openai", BackendTag: "custom.backend"})

	_, err := svc.ChatCompletion(context.Background(), chatRequest("model2"))
	require.NoError(t, err)

	sent := rt.Calls[0].Arguments.Get(1).([]byte)
	assert.JSONEq(t, `{"model":"model2","messages":[{"role":"user","content":"Hello"}],"engine":"custom.backend"}`, string(sent))
}

func TestChatCompletion_BackendUnavailable(t *testing.T) {
	rt := new(MockRuntime)
	rt.On("ChatCompletion", mock.Anything, mock.Anything).
		Return(nil, &inference.TransportError{URL: "http://127.0.0.1:3928", Err: errors.New("connection refused")})

	svc := NewService(nil, newCatalog(t), rt, modelsConfig, EngineConfig{})

	_, err := svc.ChatCompletion(context.Background(), chatRequest("model2"))

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "backend_unavailable", *apiErr.Code)
}

func TestChatCompletion_Non2xxIsReturned(t *testing.T) {
	rt := new(MockRuntime)
	rt.On("ChatCompletion", mock.Anything, mock.Anything).Return(&inference.Response{
		StatusCode: http.StatusInternalServerError,
		Body:       io.NopCloser(strings.NewReader(`{"message":"engine crashed"}`)),
	}, nil)

	svc := NewService(nil, newCatalog(t), rt, modelsConfig, EngineConfig{})

	completion, err := svc.ChatCompletion(context.Background(), chatRequest("model1"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, completion.Response.StatusCode)
}

func TestGetModel(t *testing.T) {
	svc := NewService(nil, newCatalog(t), new(MockRuntime), modelsConfig, EngineConfig{})

	d, err := svc.GetModel(context.Background(), "model2")
	require.NoError(t, err)
	assert.Equal(t, "Test Model 2", d.Name)

	_, err = svc.GetModel(context.Background(), "nope")
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestListAndDeleteModels(t *testing.T) {
	svc := NewService(nil, newCatalog(t), new(MockRuntime), modelsConfig, EngineConfig{})
	ctx := context.Background()

	assert.Len(t, svc.ListModels(ctx), 4)

	res, err := svc.DeleteModel(ctx, "model3")
	require.NoError(t, err)
	assert.Equal(t, &api.DeleteModelResponse{ID: "model3", Object: "model", Deleted: true}, res)
	assert.Len(t, svc.ListModels(ctx), 3)

	_, err = svc.DeleteModel(ctx, "model3")
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
