package shikimori

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pickFirst struct{}

func (pickFirst) Shuffle(int, func(i, j int)) {}
func (pickFirst) Intn(int) int                { return 0 }

const catalogJSON = `{
	"data": {
		"animes": [
			{"id": "21", "name": "One Piece", "russian": "Ван-Пис", "poster": {"originalUrl": "https://example.org/21.jpg"}},
			{"id": "20", "name": "Naruto", "russian": "", "poster": {"originalUrl": "https://example.org/20.jpg"}}
		]
	}
}`

func TestAdapter_FetchAnswer(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(catalogJSON))
	}))
	defer server.Close()

	adapter := NewAdapter(Config{URL: server.URL, Rand: pickFirst{}})

	answer, err := adapter.FetchAnswer(context.Background())
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, "One Piece | Ван-Пис", answer.Label)
	assert.Equal(t, "21", answer.Value)
	assert.Equal(t, "https://example.org/21.jpg", answer.PosterURL)

	variables, ok := gotBody["variables"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 50, variables["limit"])
	assert.Equal(t, "popularity", variables["order"])
}

func TestAdapter_LabelSkipsBlankParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"animes":[{"id":"20","name":"Naruto","russian":"","poster":{"originalUrl":"u"}}]}}`))
	}))
	defer server.Close()

	adapter := NewAdapter(Config{URL: server.URL, Rand: pickFirst{}})

	answer, err := adapter.FetchAnswer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Naruto", answer.Label)
}

func TestAdapter_ReportsUnavailability(t *testing.T) {
	testCases := []struct {
		desc    string
		handler http.HandlerFunc
	}{
		{
			desc: "http error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			desc: "graphql error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"errors":[{"message":"rate limited"}]}`))
			},
		},
		{
			desc: "empty catalog",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"data":{"animes":[]}}`))
			},
		},
		{
			desc: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"data":`))
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			adapter := NewAdapter(Config{URL: server.URL, Rand: pickFirst{}})

			answer, err := adapter.FetchAnswer(context.Background())
			assert.Error(t, err)
			assert.Nil(t, answer)
		})
	}
}

func TestAdapter_UnreachableBackend(t *testing.T) {
	adapter := NewAdapter(Config{URL: "http://127.0.0.1:1", Rand: pickFirst{}})

	answer, err := adapter.FetchAnswer(context.Background())
	assert.Error(t, err)
	assert.Nil(t, answer)
}
