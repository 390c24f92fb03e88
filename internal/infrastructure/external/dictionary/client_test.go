package dictionary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

const lookupPayload = `{
	"head": {},
	"def": [
		{
			"text": "time",
			"pos": "noun",
			"ts": "taɪm",
			"tr": [
				{
					"text": "время",
					"pos": "существительное",
					"syn": [{"text": "раз"}, {"text": "момент"}],
					"mean": [{"text": "period"}],
					"ex": [
						{
							"text": "prehistoric time",
							"tr": [{"text": "доисторическое время"}]
						}
					]
				}
			]
		}
	]
}`

func TestParseLookupResponse(t *testing.T) {
	resp, err := ParseLookupResponse([]byte(lookupPayload))
	require.NoError(t, err)

	require.Len(t, resp.Def, 1)
	def := resp.Def[0]
	assert.Equal(t, "time", def.Text)
	assert.Equal(t, "noun", def.Pos)
	assert.Equal(t, "taɪm", def.Transcription)

	require.Len(t, def.Translations, 1)
	tr := def.Translations[0]
	assert.Equal(t, "время", tr.Text)
	assert.Equal(t, []TextDTO{{Text: "раз"}, {Text: "момент"}}, tr.Synonyms)
	assert.Equal(t, []TextDTO{{Text: "period"}}, tr.Meanings)
	require.Len(t, tr.Examples, 1)
	assert.Equal(t, "prehistoric time", tr.Examples[0].Text)
	assert.Equal(t, "доисторическое время", tr.Examples[0].Translations[0].Text)
}

func TestParseLookupResponse_EmptyResult(t *testing.T) {
	resp, err := ParseLookupResponse([]byte(`{"head": {}, "def": []}`))
	require.NoError(t, err)
	assert.Empty(t, resp.Def)
}

func TestParseLookupResponse_InvalidJSON(t *testing.T) {
	_, err := ParseLookupResponse([]byte(`not json`))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func newTestClient(serverURL string) *Client {
	cfg := DefaultClientConfig("test-key")
	cfg.BaseURL = serverURL
	return NewClient(cfg)
}

func TestLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lookup", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "en-ru", r.URL.Query().Get("lang"))
		assert.Equal(t, "time", r.URL.Query().Get("text"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(lookupPayload))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.Lookup(context.Background(), "time", DirectionEnRu)
	require.NoError(t, err)
	require.Len(t, resp.Def, 1)
	assert.Equal(t, "time", resp.Def[0].Text)
}

func TestLookup_ValidatesInput(t *testing.T) {
	client := newTestClient("http://localhost:0")

	_, err := client.Lookup(context.Background(), "", DirectionEnRu)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = client.Lookup(context.Background(), "time", "en-fr")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestLookup_QuotaExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code": 403, "message": "daily request limit exceeded"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Lookup(context.Background(), "time", DirectionEnRu)
	assert.ErrorIs(t, err, shared.ErrRateLimited)
}

func TestLookup_InvalidKeyIsNotRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code": 401, "message": "API key is invalid"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Lookup(context.Background(), "time", DirectionEnRu)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
	assert.Equal(t, 1, requests)
}
