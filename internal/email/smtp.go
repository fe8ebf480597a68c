package email

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/sendrec/reportvideo/internal/report"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpSender struct {
	config   SMTPConfig
	sendMail sendFunc
}

func newSMTPSender(cfg SMTPConfig) smtpSender {
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return smtpSender{config: cfg, sendMail: smtp.SendMail}
}

func (s smtpSender) configured() bool {
	return s.config.Host != ""
}

func (s smtpSender) send(n report.Notification) error {
	sender := s.config.Sender
	if sender == "" {
		sender = "no-reply@" + s.config.Host
	}

	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	addr := s.config.Host + ":" + s.config.Port
	if err := s.sendMail(addr, auth, sender, []string{n.Recipient}, buildMessage(sender, n)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	slog.Info("email: report sent via smtp", "recipient", n.Recipient, "addr", addr)
	return nil
}

func buildMessage(sender string, n report.Notification) []byte {
	from := fromAddress(n.From)
	if from == "" {
		from = sender
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", n.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", strings.NewReplacer("\r", " ", "\n", " ").Replace(n.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(n.Body, "\n", "\r\n"))
	return []byte(b.String())
}
