// Package providers adapts chat turns to upstream model APIs and normalizes their replies.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Family identifies one upstream wire contract.
type Family string

const (
	Gemini      Family = "gemini"
	OpenAI      Family = "openai"
	Perplexity  Family = "perplexity"
	HuggingFace Family = "huggingface"
)

// Families lists every supported family. Registries must cover all of them.
func Families() []Family {
	return []Family{Gemini, OpenAI, Perplexity, HuggingFace}
}

func ParseFamily(name string) (Family, bool) {
	f := Family(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Families() {
		if f == known {
			return f, true
		}
	}
	return "", false
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole accepts "model" as an alias for the assistant.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, true
	case "assistant", "model":
		return RoleAssistant, true
	case "system":
		return RoleSystem, true
	}
	return "", false
}

type Message struct {
	Role    Role
	Content string
}

type Request struct {
	Model   string
	History []Message
	Prompt  string
	APIKey  string
}

// Messages returns the history followed by the prompt as a user turn.
func (r Request) Messages() []Message {
	out := make([]Message, 0, len(r.History)+1)
	out = append(out, r.History...)
	return append(out, Message{Role: RoleUser, Content: r.Prompt})
}

// Adapter performs one upstream call per Chat. It never retries.
type Adapter interface {
	Chat(ctx context.Context, req Request) (string, error)
}

type Kind string

const (
	KindMissingCredential Kind = "missing_credential"
	KindInvalidCredential Kind = "invalid_credential"
	KindRateLimited       Kind = "rate_limited"
	KindPaymentRequired   Kind = "payment_required"
	KindUpstream          Kind = "upstream_error"
	KindMalformedResponse Kind = "malformed_response"
)

// Error is a classified upstream failure.
type Error struct {
	Provider Family
	Kind     Kind
	Status   int
	Detail   string
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Provider, strings.ReplaceAll(string(e.Kind), "_", " "))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// KindOf returns the classification of err, or "" when it is not a provider error.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}

func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindInvalidCredential
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusPaymentRequired:
		return KindPaymentRequired
	default:
		return KindUpstream
	}
}

// MissingCredential reports that no key is available for the family.
func MissingCredential(f Family) *Error {
	return &Error{Provider: f, Kind: KindMissingCredential, Detail: "an API key is required"}
}

func malformed(f Family, detail string) *Error {
	return &Error{Provider: f, Kind: KindMalformedResponse, Detail: detail}
}

const maxDetail = 300

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxDetail {
		return s
	}
	cut := maxDetail
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
