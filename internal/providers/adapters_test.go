package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(key string) Request {
	return Request{
		Model:   "test-model",
		History: []Message{{Role: RoleSystem, Content: "be brief"}, {Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}},
		Prompt:  "what next?",
		APIKey:  key,
	}
}

func requireKind(t *testing.T, err error, family Family, kind Kind) *Error {
	t.Helper()
	var perr *Error
	require.True(t, errors.As(err, &perr), "want provider error, got %v", err)
	assert.Equal(t, family, perr.Provider)
	assert.Equal(t, kind, perr.Kind)
	return perr
}

func newAdapters(baseURL string) map[Family]Adapter {
	return map[Family]Adapter{
		Gemini:      NewGeminiClient(baseURL, nil),
		OpenAI:      NewOpenAIClient(baseURL+"/v1", nil),
		Perplexity:  NewPerplexityClient(baseURL, nil),
		HuggingFace: NewHuggingFaceClient(baseURL, nil),
	}
}

func TestAdapters_MissingCredentialMakesNoCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	for family, adapter := range newAdapters(srv.URL) {
		_, err := adapter.Chat(context.Background(), turn(""))
		requireKind(t, err, family, KindMissingCredential)
	}
	assert.Zero(t, calls)
}

func TestAdapters_StatusClassification(t *testing.T) {
	statuses := map[int]Kind{
		http.StatusUnauthorized:        KindInvalidCredential,
		http.StatusForbidden:           KindInvalidCredential,
		http.StatusTooManyRequests:     KindRateLimited,
		http.StatusPaymentRequired:     KindPaymentRequired,
		http.StatusInternalServerError: KindUpstream,
		http.StatusServiceUnavailable:  KindUpstream,
	}
	for status, kind := range statuses {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"error":{"message":"upstream says no","type":"test"}}`)
		}))
		for family, adapter := range newAdapters(srv.URL) {
			_, err := adapter.Chat(context.Background(), turn("key"))
			perr := requireKind(t, err, family, kind)
			assert.Equal(t, status, perr.Status, "%s %d", family, status)
			assert.Contains(t, perr.Detail, "upstream says no")
		}
		srv.Close()
	}
}

func TestAdapters_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	for family, adapter := range newAdapters(srv.URL) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		_, err := adapter.Chat(ctx, turn("key"))
		cancel()
		requireKind(t, err, family, KindUpstream)
	}
}

func TestGemini_RequestAndReply(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello "},{"text":"there"}]}}]}`)
	}))
	defer srv.Close()

	req := turn("g-key")
	req.Model = "gemini-2.0-flash"
	text, err := NewGeminiClient(srv.URL, srv.Client()).Chat(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", text)

	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "be brief", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 3)
	assert.Equal(t, []string{"user", "model", "user"}, []string{got.Contents[0].Role, got.Contents[1].Role, got.Contents[2].Role})
	assert.Equal(t, "what next?", got.Contents[2].Parts[0].Text)
}

func TestGemini_InvalidKeyOn400(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT","details":[{"reason":"API_KEY_INVALID"}]}}`)
	}))
	defer srv.Close()

	_, err := NewGeminiClient(srv.URL, nil).Chat(context.Background(), turn("bad"))
	requireKind(t, err, Gemini, KindInvalidCredential)
}

func TestGemini_Malformed(t *testing.T) {
	for _, body := range []string{`not json`, `{}`, `{"candidates":[]}`, `{"candidates":[{"content":{"parts":[]}}]}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		}))
		_, err := NewGeminiClient(srv.URL, nil).Chat(context.Background(), turn("k"))
		requireKind(t, err, Gemini, KindMalformedResponse)
		srv.Close()
	}
}

func TestOpenAICompatible_RequestAndReply(t *testing.T) {
	tests := []struct {
		name    string
		family  Family
		path    string
		adapter func(base string) Adapter
	}{
		{"openai", OpenAI, "/v1/chat/completions", func(base string) Adapter { return NewOpenAIClient(base+"/v1", nil) }},
		{"perplexity", Perplexity, "/chat/completions", func(base string) Adapter { return NewPerplexityClient(base, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				Model     string `json:"model"`
				MaxTokens int    `json:"max_tokens"`
				Messages  []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.path, r.URL.Path)
				assert.Equal(t, "Bearer sk-1", r.Header.Get("Authorization"))
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"answer"},"finish_reason":"stop"}]}`)
			}))
			defer srv.Close()

			text, err := tt.adapter(srv.URL).Chat(context.Background(), turn("sk-1"))
			require.NoError(t, err)
			assert.Equal(t, "answer", text)
			assert.Equal(t, "test-model", got.Model)
			assert.Equal(t, openAIMaxTokens, got.MaxTokens)
			require.Len(t, got.Messages, 4)
			assert.Equal(t, "system", got.Messages[0].Role)
			assert.Equal(t, "assistant", got.Messages[2].Role)
			assert.Equal(t, "user", got.Messages[3].Role)
		})
	}
}

func TestOpenAICompatible_Malformed(t *testing.T) {
	for _, body := range []string{`{"choices":[]}`, `{"choices":[{"message":{"role":"assistant","content":""}}]}`, `<html>oops</html>`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, body)
		}))
		_, err := NewOpenAIClient(srv.URL, nil).Chat(context.Background(), turn("k"))
		requireKind(t, err, OpenAI, KindMalformedResponse)
		srv.Close()
	}
}

func TestHuggingFace_RequestShape(t *testing.T) {
	var got hfRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer hf_1", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"from router"}}]}`)
	}))
	defer srv.Close()

	text, err := NewHuggingFaceClient(srv.URL, nil).Chat(context.Background(), turn("hf_1"))
	require.NoError(t, err)
	assert.Equal(t, "from router", text)
	assert.Equal(t, 1024, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.InDelta(t, 0.95, got.TopP, 1e-9)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "assistant", got.Messages[2].Role)
}

func TestExtractHuggingFaceText(t *testing.T) {
	ok := map[string]string{
		`{"choices":[{"message":{"content":"chat"}}]}`: "chat",
		`[{"generated_text":"array"}]`:                 "array",
		`{"generated_text":"object"}`:                  "object",
	}
	for body, want := range ok {
		got, err := extractHuggingFaceText([]byte(body))
		require.NoError(t, err, body)
		assert.Equal(t, want, got)
	}

	_, err := extractHuggingFaceText([]byte(`{"error":"Model is loading"}`))
	perr := requireKind(t, err, HuggingFace, KindUpstream)
	assert.Equal(t, "Model is loading", perr.Detail)

	for _, body := range []string{`[]`, `{}`, `nope`, `[{"generated_text":""}]`, `{"choices":[{"message":{"content":" "}}]}`} {
		_, err := extractHuggingFaceText([]byte(body))
		requireKind(t, err, HuggingFace, KindMalformedResponse)
	}
}

func TestOpenAICompatible_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "unauthorized")
	}))
	defer srv.Close()

	_, err := NewPerplexityClient(srv.URL, nil).Chat(context.Background(), turn("k"))
	perr := requireKind(t, err, Perplexity, KindInvalidCredential)
	assert.Equal(t, http.StatusUnauthorized, perr.Status)
}
