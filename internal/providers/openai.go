package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const openAIMaxTokens = 1000

// OpenAICompatible speaks the chat completions API through go-openai. Perplexity
// serves the same contract under its own base URL.
type OpenAICompatible struct {
	family     Family
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIClient(baseURL string, httpClient *http.Client) *OpenAICompatible {
	return &OpenAICompatible{family: OpenAI, baseURL: baseURL, httpClient: httpClient}
}

func NewPerplexityClient(baseURL string, httpClient *http.Client) *OpenAICompatible {
	if baseURL == "" {
		baseURL = "https://api.perplexity.ai"
	}
	return &OpenAICompatible{family: Perplexity, baseURL: baseURL, httpClient: httpClient}
}

func (c *OpenAICompatible) Chat(ctx context.Context, req Request) (string, error) {
	if req.APIKey == "" {
		return "", MissingCredential(c.family)
	}

	cfg := openai.DefaultConfig(req.APIKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	var doer openai.HTTPDoer = http.DefaultClient
	if c.httpClient != nil {
		doer = c.httpClient
	}
	recorder := &statusRecorder{doer: doer}
	cfg.HTTPClient = recorder
	client := openai.NewClientWithConfig(cfg)

	msgs := req.Messages()
	chat := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		chat = append(chat, openai.ChatCompletionMessage{Role: openAIRole(m.Role), Content: m.Content})
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  chat,
		MaxTokens: openAIMaxTokens,
	})
	if err != nil {
		return "", c.classify(err, recorder.status)
	}
	if len(resp.Choices) == 0 {
		return "", malformed(c.family, "response has no choices")
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", malformed(c.family, "response has no message content")
	}
	return text, nil
}

func (c *OpenAICompatible) classify(err error, status int) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Provider: c.family, Kind: classifyStatus(apiErr.HTTPStatusCode), Status: apiErr.HTTPStatusCode, Detail: truncate(apiErr.Message)}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		detail := ""
		if reqErr.Err != nil {
			detail = reqErr.Err.Error()
		}
		return &Error{Provider: c.family, Kind: classifyStatus(reqErr.HTTPStatusCode), Status: reqErr.HTTPStatusCode, Detail: truncate(detail)}
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return malformed(c.family, "response body is not a chat completion")
	}
	if status != 0 && !isSuccess(status) {
		// error bodies that are not JSON come back as plain errors
		return &Error{Provider: c.family, Kind: classifyStatus(status), Status: status, Detail: truncate(err.Error())}
	}
	// transport failures and timeouts
	return &Error{Provider: c.family, Kind: KindUpstream, Detail: truncate(err.Error())}
}

func openAIRole(r Role) string {
	switch r {
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}

// statusRecorder remembers the last HTTP status so plain client errors can still be classified.
type statusRecorder struct {
	doer   openai.HTTPDoer
	status int
}

func (s *statusRecorder) Do(req *http.Request) (*http.Response, error) {
	resp, err := s.doer.Do(req)
	if resp != nil {
		s.status = resp.StatusCode
	}
	return resp, err
}
