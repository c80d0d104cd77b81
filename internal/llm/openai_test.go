package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"alcyxob/movement-program/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"ok"},
	"properties":           map[string]any{"ok": map[string]any{"type": "boolean"}},
}

func responsesServer(t *testing.T, status int, body string, inspect func(r *http.Request, payload map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(raw, &payload))
		if inspect != nil {
			inspect(r, payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGenerateJSON(t *testing.T) {
	body := `{"output":[
		{"type":"reasoning"},
		{"type":"message","role":"assistant","content":[{"type":"output_text","text":"{\"ok\":"},{"type":"output_text","text":"true}"}]}
	],"usage":{"input_tokens":12,"output_tokens":3}}`

	srv := responsesServer(t, http.StatusOK, body, func(r *http.Request, payload map[string]any) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "test-model", payload["model"])

		format := payload["text"].(map[string]any)["format"].(map[string]any)
		assert.Equal(t, "json_schema", format["type"])
		assert.Equal(t, "probe", format["name"])
		assert.Equal(t, true, format["strict"])

		input := payload["input"].([]any)
		require.Len(t, input, 2)
		assert.Equal(t, "system", input[0].(map[string]any)["role"])
		assert.Equal(t, "be terse", input[0].(map[string]any)["content"])
	})

	client := NewOpenAIClient(Config{APIKey: "sk-test", Model: "test-model", BaseURL: srv.URL + "/"}, logger.Nop())
	raw, err := client.GenerateJSON(context.Background(), "be terse", "hello", "probe", testSchema)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, ProviderOpenAI, client.Provider())
}

func TestOpenAIGenerateJSONFailures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"http error": {status: http.StatusTooManyRequests, body: `{"error":{"message":"quota"}}`},
		"refusal": {status: http.StatusOK, body: `{"output":[{"type":"message","role":"assistant",
			"content":[{"type":"refusal","refusal":"no"}]}]}`},
		"empty output": {status: http.StatusOK, body: `{"output":[]}`},
		"not json":     {status: http.StatusOK, body: `<html>`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := responsesServer(t, tc.status, tc.body, nil)
			client := NewOpenAIClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, logger.Nop())
			_, err := client.GenerateJSON(context.Background(), "sys", "user", "probe", testSchema)
			assert.Error(t, err)
		})
	}
}

func TestOpenAIRequiresSchema(t *testing.T) {
	client := NewOpenAIClient(Config{APIKey: "sk-test"}, logger.Nop())
	_, err := client.GenerateJSON(context.Background(), "sys", "user", "", testSchema)
	assert.Error(t, err)
	_, err = client.GenerateJSON(context.Background(), "sys", "user", "probe", nil)
	assert.Error(t, err)
}

func TestOpenAIHonorsContext(t *testing.T) {
	srv := responsesServer(t, http.StatusOK, `{"output":[]}`, nil)
	client := NewOpenAIClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GenerateJSON(ctx, "sys", "user", "probe", testSchema)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	_, err := New(context.Background(), Config{}, logger.Nop())
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(context.Background(), Config{Provider: "openai"}, logger.Nop())
	assert.ErrorIs(t, err, ErrNotConfigured, "missing key")

	_, err = New(context.Background(), Config{Provider: "none", APIKey: "x"}, logger.Nop())
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(context.Background(), Config{Provider: "cohere", APIKey: "x"}, logger.Nop())
	assert.Error(t, err)

	client, err := New(context.Background(), Config{Provider: " OpenAI ", APIKey: "x"}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, client.Provider())
}
