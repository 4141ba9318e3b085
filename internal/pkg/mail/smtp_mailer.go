package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/pulsarpub/pulsar/internal/pkg/env"
)

// SendMail delivers a single HTML mail over SMTP.
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", env.CanonicalHost())
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// NotifyAdmins sends a mail to every address in ADMIN_EMAILS. Delivery
// problems are logged and swallowed; webhook processing must not depend on
// working mail.
func NotifyAdmins(subject string, body string) {
	admins := env.GetEnv("ADMIN_EMAILS", "")
	if admins == "" {
		return
	}

	for _, to := range strings.Split(admins, ",") {
		to = strings.TrimSpace(to)
		if to == "" {
			continue
		}
		if err := SendMail(to, subject, body); err != nil {
			log.Printf("admin notification to %s failed: %v", to, err)
		}
	}
}
