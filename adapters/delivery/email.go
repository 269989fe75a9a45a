package invoicedelivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/goliatone/go-invoice/invoice"
)

// Attachment is a file attached to an outbound email, typically the invoice
// PDF.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EmailMessage describes an outbound invoice email.
type EmailMessage struct {
	From       string
	To         string
	Subject    string
	Body       string
	Attachment *Attachment
}

// EmailSender delivers email messages.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMTPClient abstracts SMTP delivery.
type SMTPClient interface {
	SendMail(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// SMTPConfig holds SMTP transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Addr returns the host:port dial address.
func (c SMTPConfig) Addr() string {
	port := c.Port
	if port == 0 {
		port = 587
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}

// Auth returns PLAIN auth when credentials are configured, nil otherwise.
func (c SMTPConfig) Auth() smtp.Auth {
	if c.Username == "" {
		return nil
	}
	return smtp.PlainAuth("", c.Username, c.Password, c.Host)
}

// SMTPMailer sends invoice email via SMTP.
type SMTPMailer struct {
	Config SMTPConfig
	Client SMTPClient
	Now    func() time.Time
}

// NewSMTPMailer creates a mailer backed by net/smtp.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{Config: cfg}
}

// Send delivers the message via SMTP.
func (m *SMTPMailer) Send(ctx context.Context, msg EmailMessage) error {
	if m == nil {
		return invoice.NewError(invoice.KindInternal, "mailer is nil", nil)
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	from := strings.TrimSpace(msg.From)
	if from == "" {
		from = strings.TrimSpace(m.Config.From)
	}
	if from == "" {
		from = strings.TrimSpace(m.Config.Username)
	}
	if from == "" {
		return invoice.NewError(invoice.KindValidation, "email from is required", nil)
	}
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return invoice.NewError(invoice.KindValidation, "email recipient is required", nil)
	}

	payload, err := buildEmailMessage(msg, from, to, nowOr(m.Now))
	if err != nil {
		return err
	}

	client := m.Client
	if client == nil {
		client = smtpClient{}
	}

	if err := client.SendMail(m.Config.Addr(), m.Config.Auth(), from, []string{to}, payload); err != nil {
		return invoice.NewError(invoice.KindExternal, "smtp send failed", err)
	}
	return nil
}

func buildEmailMessage(msg EmailMessage, from, to string, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, "From", from)
	writeHeader(&buf, "To", to)
	writeHeader(&buf, "Subject", msg.Subject)
	writeHeader(&buf, "Date", now.Format(time.RFC1123Z))
	writeHeader(&buf, "MIME-Version", "1.0")

	if msg.Attachment == nil {
		writeHeader(&buf, "Content-Type", "text/plain; charset=utf-8")
		writeHeader(&buf, "Content-Transfer-Encoding", "7bit")
		buf.WriteString("\r\n")
		buf.WriteString(msg.Body)
		buf.WriteString("\r\n")
		return buf.Bytes(), nil
	}

	writer := multipart.NewWriter(&buf)
	writeHeader(&buf, "Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", writer.Boundary()))
	buf.WriteString("\r\n")

	textHeaders := make(textproto.MIMEHeader)
	textHeaders.Set("Content-Type", "text/plain; charset=utf-8")
	textHeaders.Set("Content-Transfer-Encoding", "7bit")
	textPart, err := writer.CreatePart(textHeaders)
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}

	attachHeaders := make(textproto.MIMEHeader)
	contentType := msg.Attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	attachHeaders.Set("Content-Type", contentType)
	attachHeaders.Set("Content-Transfer-Encoding", "base64")
	attachHeaders.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", msg.Attachment.Filename))
	attachPart, err := writer.CreatePart(attachHeaders)
	if err != nil {
		return nil, err
	}
	if err := writeBase64(attachPart, msg.Attachment.Data); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func writeBase64(w io.Writer, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := w.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	if len(encoded) > 0 {
		if _, err := w.Write([]byte(encoded + "\r\n")); err != nil {
			return err
		}
	}
	return nil
}

func nowOr(nowFn func() time.Time) time.Time {
	if nowFn != nil {
		return nowFn()
	}
	return time.Now()
}

type smtpClient struct{}

func (smtpClient) SendMail(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	return smtp.SendMail(addr, auth, from, to, msg)
}
