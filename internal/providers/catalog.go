package providers

import (
	"errors"
	"strings"
)

var ErrUnsupportedModel = errors.New("unsupported model")

// Route is where a model id is served.
type Route struct {
	Family Family
	Model  string
}

// huggingFaceModels maps public ids to router model names.
var huggingFaceModels = map[string]string{
	"mistral-7b":   "mistralai/Mistral-7B-Instruct-v0.2:featherless-ai",
	"qwen-7b":      "Qwen/Qwen3-8B:nscale",
	"qwen-14b":     "Qwen/Qwen3-14B:nscale",
	"llama-3.1-8b": "meta-llama/Llama-3.1-8B-Instruct:sambanova",
	"deepseek-r1":  "deepseek-ai/DeepSeek-R1:novita",
}

const defaultPerplexityModel = "sonar"

// catalog holds one matcher per family; Resolve walks it in order.
var catalog = []struct {
	family Family
	match  func(id string) (string, bool)
}{
	{Gemini, func(id string) (string, bool) {
		return id, strings.HasPrefix(id, "gemini")
	}},
	{OpenAI, func(id string) (string, bool) {
		return id, strings.HasPrefix(id, "gpt")
	}},
	{Perplexity, func(id string) (string, bool) {
		if id == "perplexity" {
			return defaultPerplexityModel, true
		}
		model, ok := strings.CutPrefix(id, "perplexity-")
		return model, ok && model != ""
	}},
	{HuggingFace, func(id string) (string, bool) {
		model, ok := huggingFaceModels[id]
		return model, ok
	}},
}

func Resolve(modelID string) (Route, error) {
	id := strings.ToLower(strings.TrimSpace(modelID))
	if id == "" {
		return Route{}, ErrUnsupportedModel
	}
	for _, entry := range catalog {
		if model, ok := entry.match(id); ok {
			return Route{Family: entry.family, Model: model}, nil
		}
	}
	return Route{}, ErrUnsupportedModel
}
