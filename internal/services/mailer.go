package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
)

// SMTPSender delivers plain-text email over SMTP
type SMTPSender struct {
	host     string
	port     int
	user     string
	pass     string
	from     string
	subject  string
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		user:     user,
		pass:     pass,
		from:     from,
		subject:  "Your WashPe verification code",
		sendMail: smtp.SendMail,
	}
}

func (s *SMTPSender) message(to, body string) []byte {
	return []byte("From: " + s.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + s.subject + "\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n" +
		body + "\r\n")
}

// Send delivers one email. net/smtp has no context support; the send runs in
// its own goroutine and ctx bounds the wait.
func (s *SMTPSender) Send(ctx context.Context, to, body string) error {
	if s.host == "" {
		return fmt.Errorf("smtp not configured")
	}
	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}
	addr := s.host + ":" + strconv.Itoa(s.port)

	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(addr, auth, s.from, []string{to}, s.message(to, body))
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("send mail: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		return nil
	}
}
