package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCompleteSendsMessagesAndAuth(t *testing.T) {
	var got chatRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"cleaned"}}]}`))
	}))
	defer server.Close()

	content, ok, err := NewClient(time.Second).Complete(context.Background(), Request{
		Provider:    Provider{ID: "openai", BaseURL: server.URL + "/v1/"},
		APIKey:      "sk-test",
		Model:       "gpt-4o-mini",
		UserContent: "fix: hello",
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "cleaned", content)

	require.Equal(t, "Bearer sk-test", auth)
	require.Equal(t, "gpt-4o-mini", got.Model)
	require.Equal(t, []message{{Role: "user", Content: "fix: hello"}}, got.Messages)
	require.Nil(t, got.ResponseFormat)
}

func TestCompleteWithSchemaSendsResponseFormat(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"transcription\":\"hi\"}"}}]}`))
	}))
	defer server.Close()

	schema := json.RawMessage(`{"type":"object"}`)
	content, ok, err := NewClient(0).CompleteWithSchema(context.Background(), Request{
		Provider:     Provider{ID: "local", BaseURL: server.URL},
		Model:        "llama",
		SystemPrompt: "  Clean it.  ",
		UserContent:  "hi",
	}, "transcription_output", schema)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"transcription":"hi"}`, content)

	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].(map[string]any)["role"])
	require.Equal(t, "Clean it.", messages[0].(map[string]any)["content"])

	format := got["response_format"].(map[string]any)
	require.Equal(t, "json_schema", format["type"])
	schemaFormat := format["json_schema"].(map[string]any)
	require.Equal(t, "transcription_output", schemaFormat["name"])
	require.Equal(t, true, schemaFormat["strict"])
	require.Equal(t, map[string]any{"type": "object"}, schemaFormat["schema"])
}

func TestCompleteWithoutContent(t *testing.T) {
	for name, body := range map[string]string{
		"no choices":    `{"choices":[]}`,
		"null content":  `{"choices":[{"message":{"content":null}}]}`,
		"empty content": `{"choices":[{"message":{"content":""}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			content, ok, err := NewClient(time.Second).Complete(context.Background(), Request{
				Provider: Provider{ID: "p", BaseURL: server.URL},
			})
			require.NoError(t, err)
			require.False(t, ok)
			require.Empty(t, content)
		})
	}
}

func TestCompleteReportsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"auth"}}`))
	}))
	defer server.Close()

	_, ok, err := NewClient(time.Second).Complete(context.Background(), Request{
		Provider: Provider{ID: "openai", BaseURL: server.URL},
	})
	require.Error(t, err)
	require.False(t, ok)
	require.Contains(t, err.Error(), "status 401")
	require.Contains(t, err.Error(), "invalid api key")
}

func TestCompleteReportsNonJSONErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	_, _, err := NewClient(time.Second).Complete(context.Background(), Request{
		Provider: Provider{ID: "openai", BaseURL: server.URL},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "upstream down")
}

func TestCompleteRejectsBadBaseURL(t *testing.T) {
	_, _, err := NewClient(time.Second).Complete(context.Background(), Request{Provider: Provider{ID: "x"}})
	require.ErrorContains(t, err, "base url is empty")

	_, _, err = NewClient(time.Second).Complete(context.Background(), Request{Provider: Provider{ID: "x", BaseURL: "ftp://host"}})
	require.ErrorContains(t, err, "must start with http")
}

func TestCompleteHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewClient(time.Second).Complete(ctx, Request{Provider: Provider{ID: "p", BaseURL: server.URL}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate(" abc ", 5))
	require.Equal(t, "ab...", truncate("abcdef", 2))
}
