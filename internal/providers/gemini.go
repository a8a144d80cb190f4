package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

type GeminiClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewGeminiClient(baseURL string, httpClient *http.Client) *GeminiClient {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	return &GeminiClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) Chat(ctx context.Context, req Request) (string, error) {
	if req.APIKey == "" {
		return "", MissingCredential(Gemini)
	}

	body := geminiRequest{}
	var system []geminiPart
	for _, m := range req.Messages() {
		switch m.Role {
		case RoleSystem:
			system = append(system, geminiPart{Text: m.Content})
		case RoleAssistant:
			body.Contents = append(body.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			body.Contents = append(body.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		body.SystemInstruction = &geminiContent{Parts: system}
	}

	endpoint := c.baseURL + "/v1beta/models/" + url.PathEscape(req.Model) + ":generateContent"
	status, raw, err := postJSON(ctx, c.httpClient, Gemini, endpoint, map[string]string{"x-goog-api-key": req.APIKey}, body)
	if err != nil {
		return "", err
	}
	if !isSuccess(status) {
		kind := classifyStatus(status)
		// Gemini rejects bad keys with 400 INVALID_ARGUMENT
		if status == http.StatusBadRequest && bytes.Contains(raw, []byte("API_KEY_INVALID")) {
			kind = KindInvalidCredential
		}
		return "", &Error{Provider: Gemini, Kind: kind, Status: status, Detail: truncate(upstreamMessage(raw))}
	}

	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", malformed(Gemini, "response body is not JSON")
	}
	if len(resp.Candidates) == 0 {
		return "", malformed(Gemini, "response has no candidates")
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", malformed(Gemini, "candidate has no text")
	}
	return text.String(), nil
}
