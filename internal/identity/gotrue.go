package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// GoTrue is a client for a GoTrue (Supabase Auth) compatible server. Admin calls use the
// service role key.
type GoTrue struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewGoTrue(baseURL, serviceKey string, httpClient *http.Client) (*GoTrue, error) {
	if baseURL == "" || serviceKey == "" {
		return nil, errors.New("identity URL and service key are required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GoTrue{baseURL: strings.TrimRight(baseURL, "/"), serviceKey: serviceKey, httpClient: httpClient}, nil
}

func (g *GoTrue) Authenticate(ctx context.Context, bearer string) (Identity, error) {
	if bearer == "" {
		return Identity{}, ErrUnauthorized
	}
	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	status, raw, err := g.do(ctx, http.MethodGet, "/auth/v1/user", bearer, nil)
	if err != nil {
		return Identity{}, err
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Identity{}, ErrUnauthorized
	case status != http.StatusOK:
		return Identity{}, fmt.Errorf("identity user lookup: status %d", status)
	}
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		return Identity{}, ErrUnauthorized
	}
	return Identity{ID: user.ID, Email: user.Email}, nil
}

func (g *GoTrue) EnsureAccount(ctx context.Context, email string) error {
	body := map[string]any{
		"email":         email,
		"email_confirm": true,
		"user_metadata": map[string]any{"email_verified": true},
	}
	status, raw, err := g.do(ctx, http.MethodPost, "/auth/v1/admin/users", g.serviceKey, body)
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusCreated {
		return nil
	}
	if alreadyRegistered(status, raw) {
		return nil
	}
	return fmt.Errorf("identity create user: status %d: %s", status, strings.TrimSpace(string(raw)))
}

func alreadyRegistered(status int, raw []byte) bool {
	if status != http.StatusUnprocessableEntity && status != http.StatusBadRequest && status != http.StatusConflict {
		return false
	}
	s := strings.ToLower(string(raw))
	return strings.Contains(s, "email_exists") || strings.Contains(s, "already been registered") || strings.Contains(s, "already registered") || strings.Contains(s, "already exists")
}

type generateLinkResponse struct {
	HashedToken string `json:"hashed_token"`
	ActionLink  string `json:"action_link"`
	Properties  *struct {
		HashedToken string `json:"hashed_token"`
		ActionLink  string `json:"action_link"`
	} `json:"properties"`
}

// Mint asks for a magic link without sending it and returns its token. The dedicated
// hashed_token field is preferred; the token query parameter of action_link is the fallback.
func (g *GoTrue) Mint(ctx context.Context, email string) (string, error) {
	status, raw, err := g.do(ctx, http.MethodPost, "/auth/v1/admin/generate_link", g.serviceKey, map[string]string{
		"type":  "magiclink",
		"email": email,
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("identity generate link: status %d: %s", status, strings.TrimSpace(string(raw)))
	}

	var resp generateLinkResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode generate link response: %w", err)
	}
	hashed, link := resp.HashedToken, resp.ActionLink
	if resp.Properties != nil {
		if hashed == "" {
			hashed = resp.Properties.HashedToken
		}
		if link == "" {
			link = resp.Properties.ActionLink
		}
	}
	if hashed != "" {
		return hashed, nil
	}
	return tokenFromLink(link)
}

func tokenFromLink(link string) (string, error) {
	if link == "" {
		return "", errors.New("generate link response has no token")
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse action link: %w", err)
	}
	token := u.Query().Get("token")
	if token == "" {
		return "", errors.New("action link has no token parameter")
	}
	return token, nil
}

func (g *GoTrue) do(ctx context.Context, method, path, bearer string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("apikey", g.serviceKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("identity request %s: %w", path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, raw, nil
}
