package inference

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletion_PostsBody(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotCT     string
		gotBody   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotCT = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/"}, nil)

	resp, err := client.ChatCompletion(context.Background(), []byte(`{"model":"model1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.True(t, resp.OK())
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, DefaultChatPath, gotPath)
	assert.Equal(t, "application/json", gotCT)
	assert.JSONEq(t, `{"model":"model1"}`, string(gotBody))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"success":true}`, string(body))
}

func TestChatCompletion_Non2xxIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(Config{BaseURL: srv.URL}, nil).ChatCompletion(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestChatCompletion_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(Config{BaseURL: url}, nil).ChatCompletion(context.Background(), []byte(`{}`))
	require.Error(t, err)

	var te *TransportError
	assert.True(t, errors.As(err, &te))
	assert.Equal(t, url+DefaultChatPath, te.URL)
}

func TestDefaults(t *testing.T) {
	client := NewClient(Config{}, nil)
	assert.Equal(t, "http://127.0.0.1:3928/inferences/server/chat_completion", client.ChatURL())
}

func TestHealth(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != DefaultHealthPath || !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, nil)
	assert.NoError(t, client.Health(context.Background()))

	healthy = false
	err := client.Health(context.Background())
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusServiceUnavailable, ue.StatusCode)
}
