package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProviderGenerate(t *testing.T) {
	var got ollamaEmbeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"embedding":[3,4]}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "")
	res, err := p.Generate(context.Background(), "attention", TaskRetrievalQuery)

	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", got.Model)
	assert.Equal(t, "search_query: attention", got.Prompt)
	assert.InDelta(t, 0.6, res.Embedding.Values[0], 1e-6)
	assert.InDelta(t, 0.8, res.Embedding.Values[1], 1e-6)
}

func TestOllamaProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "bad status", status: http.StatusInternalServerError, body: `oops`},
		{name: "empty vector", status: http.StatusOK, body: `{"embedding":[]}`},
		{name: "bad json", status: http.StatusOK, body: `{`},
		{name: "zero vector", status: http.StatusOK, body: `{"embedding":[0,0,0]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOllamaProvider(srv.URL, "m").Generate(context.Background(), "x", TaskRetrievalDocument)
			assert.Error(t, err)
		})
	}
}

func TestNormalizeVector(t *testing.T) {
	out := normalizeVector([]float32{1, 2, 2})
	var sum float64
	for _, v := range out {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)

	assert.Nil(t, normalizeVector([]float32{0, 0}))
}
