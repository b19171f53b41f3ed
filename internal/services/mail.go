package services

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
)

// ErrMailNotConfigured is returned when SMTP credentials are absent.
var ErrMailNotConfigured = errors.New("mail transport is not configured")

// MailSender delivers a single email message.
type MailSender interface {
	SendMail(to, subject, body string) error
}

// MailService sends plain-text email over SMTP.
type MailService struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewMailService creates a new MailService.
func NewMailService(host string, port int, user, pass, from string) *MailService {
	return &MailService{
		host: host,
		port: port,
		user: user,
		pass: pass,
		from: from,
	}
}

// SendMail delivers one message. Port 465 uses implicit TLS, any other
// port relies on STARTTLS negotiated by net/smtp.
func (m *MailService) SendMail(to, subject, body string) error {
	if m.host == "" || m.user == "" {
		return ErrMailNotConfigured
	}

	msg := m.buildMessage(to, subject, body)
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)

	if m.port == 465 {
		return m.sendImplicitTLS(addr, auth, to, msg)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, msg)
}

func (m *MailService) buildMessage(to, subject, body string) []byte {
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n",
		m.from, to, subject)
	return []byte(headers + body)
}

func (m *MailService) sendImplicitTLS(addr string, auth smtp.Auth, to string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(m.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
