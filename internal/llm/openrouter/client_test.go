package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/glr-generator/internal/common"
	"github.com/joseph-ayodele/glr-generator/internal/llm"
)

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{}, nil)
	assert.Equal(t, DefaultBaseURL, c.cfg.BaseURL)
	assert.Equal(t, DefaultModel, c.Model())
	assert.NotZero(t, c.http.Timeout)
}

func TestComplete(t *testing.T) {
	t.Run("returns first choice content", func(t *testing.T) {
		var got chatRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[INSURED_NAME]: John Doe"}},{"message":{"content":"ignored"}}]}`))
		}))
		defer srv.Close()

		c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/api/v1/"}, nil)
		reply, err := c.Complete(context.Background(), "the prompt")
		require.NoError(t, err)

		assert.Equal(t, "[INSURED_NAME]: John Doe", reply)
		assert.Equal(t, DefaultModel, got.Model)
		assert.Equal(t, []message{{Role: "user", Content: "the prompt"}}, got.Messages)
	})

	t.Run("empty key is sent as is", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"No auth credentials found","code":401}}`))
		}))
		defer srv.Close()

		c := NewClient(Config{BaseURL: srv.URL}, nil)
		rec := &recordingTransport{next: http.DefaultTransport}
		c.http.Transport = rec
		_, err := c.Complete(context.Background(), "p")
		require.Error(t, err)
		// Checked before the wire: servers trim the trailing space.
		assert.Equal(t, "Bearer ", rec.authorization)

		var callErr *llm.CallError
		require.True(t, errors.As(err, &callErr))
		assert.Equal(t, http.StatusUnauthorized, callErr.Status)
		assert.Contains(t, callErr.Body, "No auth credentials found")
		assert.ErrorIs(t, err, common.ErrModelCall)
	})

	t.Run("malformed envelope", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
		_, err := c.Complete(context.Background(), "p")
		require.Error(t, err)

		var callErr *llm.CallError
		require.True(t, errors.As(err, &callErr))
		assert.Equal(t, http.StatusOK, callErr.Status)
		assert.Equal(t, `{"choices":[]}`, callErr.Body)
		assert.ErrorIs(t, err, common.ErrModelCall)
	})
}

// recordingTransport keeps the Authorization header of the last request.
type recordingTransport struct {
	next          http.RoundTripper
	authorization string
}

func (t *recordingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	t.authorization = r.Header.Get("Authorization")
	return t.next.RoundTrip(r)
}
