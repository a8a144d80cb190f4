// Package email delivers one-time passcodes.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
)

// Sender delivers a verification code to an address.
type Sender interface {
	SendOTP(ctx context.Context, to, code string) error
}

const otpSubject = "Your verification code"

const otpTemplate = `
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <p>Your verification code is</p>
    <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
    <p>It expires in {{.Minutes}} minutes. If you did not ask for it, you can ignore this email.</p>
</body>
</html>
`

var otpHTML = template.Must(template.New("otp").Parse(otpTemplate))

func otpText(code string) string {
	return fmt.Sprintf("Your OTP is %s", code)
}

func renderOTP(code string, minutes int) (string, error) {
	var body bytes.Buffer
	if err := otpHTML.Execute(&body, map[string]any{"Code": code, "Minutes": minutes}); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return body.String(), nil
}
