package mail

import (
	"fmt"
	"strings"
)

type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

func link(domain, path string) string {
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "http://" + domain
	}
	return strings.TrimRight(domain, "/") + path
}

func VerificationMessage(domain, email, token string) Message {
	return Message{
		To:      []string{email},
		Subject: "Verify your email",
		Body: fmt.Sprintf("Welcome!\n\nPlease confirm your email address by opening the link below:\n%s\n",
			link(domain, "/api/v1/auth/verify/"+token)),
	}
}

func PasswordResetMessage(domain, email, token string) Message {
	return Message{
		To:      []string{email},
		Subject: "Reset your password",
		Body: fmt.Sprintf("A password reset was requested for your account.\n\nTo choose a new password open the link below:\n%s\n\nIgnore this email if it was not you.\n",
			link(domain, "/api/v1/auth/password-reset-confirm/"+token)),
	}
}
