package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// HuggingFaceClient calls the inference router's OpenAI-compatible endpoint, which serves
// several open-weight models behind one contract.
type HuggingFaceClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHuggingFaceClient(baseURL string, httpClient *http.Client) *HuggingFaceClient {
	if baseURL == "" {
		baseURL = "https://router.huggingface.co"
	}
	return &HuggingFaceClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type hfMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type hfRequest struct {
	Model       string      `json:"model"`
	Messages    []hfMessage `json:"messages"`
	MaxTokens   int         `json:"max_tokens"`
	Temperature float64     `json:"temperature"`
	TopP        float64     `json:"top_p"`
}

func (c *HuggingFaceClient) Chat(ctx context.Context, req Request) (string, error) {
	if req.APIKey == "" {
		return "", MissingCredential(HuggingFace)
	}

	msgs := req.Messages()
	body := hfRequest{
		Model:       req.Model,
		Messages:    make([]hfMessage, 0, len(msgs)),
		MaxTokens:   1024,
		Temperature: 0.7,
		TopP:        0.95,
	}
	for _, m := range msgs {
		body.Messages = append(body.Messages, hfMessage{Role: string(m.Role), Content: m.Content})
	}

	status, raw, err := postJSON(ctx, c.httpClient, HuggingFace, c.baseURL+"/v1/chat/completions",
		map[string]string{"Authorization": "Bearer " + req.APIKey}, body)
	if err != nil {
		return "", err
	}
	if !isSuccess(status) {
		return "", &Error{Provider: HuggingFace, Kind: classifyStatus(status), Status: status, Detail: truncate(upstreamMessage(raw))}
	}
	return extractHuggingFaceText(raw)
}

// extractHuggingFaceText accepts the chat completion shape as well as the older
// text-generation shapes ([{generated_text}] and {generated_text}).
func extractHuggingFaceText(raw []byte) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []struct {
			GeneratedText string `json:"generated_text"`
		}
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return "", malformed(HuggingFace, "response body is not JSON")
		}
		if len(items) == 0 || strings.TrimSpace(items[0].GeneratedText) == "" {
			return "", malformed(HuggingFace, "response has no generated text")
		}
		return items[0].GeneratedText, nil
	}

	var body struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		GeneratedText string `json:"generated_text"`
		Error         any    `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return "", malformed(HuggingFace, "response body is not JSON")
	}
	if body.Error != nil {
		return "", &Error{Provider: HuggingFace, Kind: KindUpstream, Status: http.StatusOK, Detail: truncate(upstreamMessage(trimmed))}
	}
	if len(body.Choices) > 0 && strings.TrimSpace(body.Choices[0].Message.Content) != "" {
		return body.Choices[0].Message.Content, nil
	}
	if strings.TrimSpace(body.GeneratedText) != "" {
		return body.GeneratedText, nil
	}
	return "", malformed(HuggingFace, "response has no message content")
}
