// ytparser/pot/pot_test.go
package pot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ytparser/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(&config.Config{POTProviderURL: baseURL}, zap.NewNop())
}

func TestFetchToken_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/get_pot", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "dQw4w9WgXcQ", body["video_id"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"contentBinding":"visitor123","poToken":"tok456"}`))
	}))
	defer srv.Close()

	tok := newTestClient(srv.URL).FetchToken(context.Background(), "dQw4w9WgXcQ")
	require.NotNil(t, tok)
	assert.Equal(t, "tok456", tok.POToken)
	assert.Equal(t, "visitor123", tok.ContentBinding)
}

func TestFetchToken_SnakeCaseResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content_binding":"v","po_token":"t"}`))
	}))
	defer srv.Close()

	tok := newTestClient(srv.URL).FetchToken(context.Background(), "")
	require.NotNil(t, tok)
	assert.Equal(t, "t", tok.POToken)
	assert.Equal(t, "v", tok.ContentBinding)
}

func TestFetchToken_NeverFatal(t *testing.T) {
	t.Run("provider not configured", func(t *testing.T) {
		assert.Nil(t, newTestClient("").FetchToken(context.Background(), "id"))
	})

	t.Run("provider returns 500", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()
		assert.Nil(t, newTestClient(srv.URL).FetchToken(context.Background(), "id"))
	})

	t.Run("provider unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // Connection refused from here on
		assert.Nil(t, newTestClient(srv.URL).FetchToken(context.Background(), "id"))
	})

	t.Run("empty token in response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"contentBinding":"v","poToken":""}`))
		}))
		defer srv.Close()
		assert.Nil(t, newTestClient(srv.URL).FetchToken(context.Background(), "id"))
	})
}
