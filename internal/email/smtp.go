package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

type SMTPSender struct {
	Host       string
	Port       string
	Username   string
	Password   string
	From       string
	TTLMinutes int

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host, port, username, password, from string, ttlMinutes int) *SMTPSender {
	return &SMTPSender{
		Host:       host,
		Port:       port,
		Username:   username,
		Password:   password,
		From:       from,
		TTLMinutes: ttlMinutes,
		send:       smtp.SendMail,
	}
}

func (s *SMTPSender) SendOTP(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := renderOTP(code, s.TTLMinutes)
	if err != nil {
		return err
	}

	headers := []string{
		"From: " + s.From,
		"To: " + to,
		"Subject: " + otpSubject,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
	}
	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + body

	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	if err := s.send(net.JoinHostPort(s.Host, s.Port), auth, s.From, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
