package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// MailtrapSender uses the Mailtrap send API.
type MailtrapSender struct {
	url        string
	token      string
	from       string
	fromName   string
	ttlMinutes int
	httpClient *http.Client
}

func NewMailtrapSender(url, token, from, fromName string, ttlMinutes int, httpClient *http.Client) *MailtrapSender {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &MailtrapSender{url: url, token: token, from: from, fromName: fromName, ttlMinutes: ttlMinutes, httpClient: httpClient}
}

type mailtrapAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailtrapMessage struct {
	From    mailtrapAddress   `json:"from"`
	To      []mailtrapAddress `json:"to"`
	Subject string            `json:"subject"`
	Text    string            `json:"text"`
	HTML    string            `json:"html,omitempty"`
}

func (m *MailtrapSender) SendOTP(ctx context.Context, to, code string) error {
	html, err := renderOTP(code, m.ttlMinutes)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(mailtrapMessage{
		From:    mailtrapAddress{Email: m.from, Name: m.fromName},
		To:      []mailtrapAddress{{Email: to}},
		Subject: otpSubject,
		Text:    otpText(code),
		HTML:    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mailtrap send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mailtrap send: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
