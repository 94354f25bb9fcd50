package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"exception-reporter/internal/reporterr"
)

// SMTPClient is the subset of *smtp.Client used by SMTPSender.
type SMTPClient interface {
	Extension(ext string) (bool, string)
	StartTLS(config *tls.Config) error
	Auth(a sasl.Client) error
	SendMail(from string, to []string, r io.Reader) error
	Quit() error
	Close() error
}

// DialFunc connects to an SMTP server; useTLS selects implicit TLS.
type DialFunc func(addr string, useTLS bool, tlsConfig *tls.Config) (SMTPClient, error)

// DialSMTP dials with go-smtp.
func DialSMTP(addr string, useTLS bool, tlsConfig *tls.Config) (SMTPClient, error) {
	var (
		c   *smtp.Client
		err error
	)
	if useTLS {
		c, err = smtp.DialTLS(addr, tlsConfig)
	} else {
		c, err = smtp.Dial(addr)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SMTPSender mails the report with attachments.
type SMTPSender struct {
	deps Deps
}

func (s *SMTPSender) ConnectingMessage() string {
	return fmt.Sprintf("Connecting to SMTP server %s...", s.deps.Config.SMTP.Server)
}

func (s *SMTPSender) Description() string { return "SMTP" }

func (s *SMTPSender) addr() string {
	cfg := s.deps.Config.SMTP
	port := cfg.Port
	if port == 0 {
		port = 25
		if cfg.UseSSL {
			port = 465
		}
	}
	return net.JoinHostPort(cfg.Server, strconv.Itoa(port))
}

func (s *SMTPSender) Send(ctx context.Context, text string) error {
	cfg := s.deps.Config
	if cfg.SMTP.Server == "" {
		return reporterr.New(reporterr.CodeTransportSetup, "smtp server is empty")
	}
	if cfg.Send.EmailReportAddress == "" {
		return reporterr.New(reporterr.CodeTransportSetup, "email report address is empty")
	}
	if err := ctx.Err(); err != nil {
		return reporterr.Wrap(reporterr.CodeTransportSetup, "smtp send cancelled", err)
	}

	from := cfg.SMTP.FromAddress
	if from == "" {
		from = cfg.Send.EmailReportAddress
	}
	tlsConfig := &tls.Config{ServerName: cfg.SMTP.Server}

	addr := s.addr()
	c, err := s.deps.DialSMTP(addr, cfg.SMTP.UseSSL, tlsConfig)
	if err != nil {
		return reporterr.WrapWithContext(reporterr.CodeTransportSetup, "connect smtp", err, map[string]any{"addr": addr})
	}
	defer c.Close()

	if !cfg.SMTP.UseSSL {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return reporterr.Wrap(reporterr.CodeTransportSetup, "smtp starttls", err)
			}
		}
	}
	if cfg.SMTP.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", cfg.SMTP.Username, cfg.SMTP.Password)); err != nil {
			return reporterr.Wrap(reporterr.CodeTransportSetup, "smtp auth", err)
		}
	}

	var attachments []string
	if s.deps.Attacher != nil {
		b, err := s.deps.Attacher.Attach(ctx, cfg, s.deps.Screenshot, func(p string) { attachments = append(attachments, p) })
		if err != nil {
			s.deps.Logger.Warn("attachments skipped", zap.Error(err))
		}
		for _, p := range []string{b.Archive, b.Screenshot} {
			if p != "" {
				s.deps.TrackFile(p)
			}
		}
	}

	msg, err := buildMessage(from, cfg.Send.EmailReportAddress, subject(cfg), cfg.SMTP.Priority, text, attachments, time.Now())
	if err != nil {
		return s.fail(err)
	}
	if err := c.SendMail(from, []string{cfg.Send.EmailReportAddress}, bytes.NewReader(msg)); err != nil {
		return s.fail(err)
	}
	_ = c.Quit()

	s.deps.Logger.Info("report mailed", zap.String("to", cfg.Send.EmailReportAddress), zap.Int("attachments", len(attachments)))
	s.deps.Sink.Completed(true)
	return nil
}

func (s *SMTPSender) fail(err error) error {
	wrapped := reporterr.Wrap(reporterr.CodeTransportSend, "send mail", err)
	s.deps.Sink.Completed(false)
	s.deps.Sink.ShowError(s.Description()+" unable to send report", wrapped)
	return wrapped
}

func priorityHeader(p string) string {
	switch strings.ToLower(p) {
	case "high":
		return "1 (Highest)"
	case "low":
		return "5 (Lowest)"
	}
	return "3 (Normal)"
}

// buildMessage renders a multipart/mixed message with a text body and one
// base64 part per attachment.
func buildMessage(from, to, subj, priority, body string, attachments []string, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subj),
		"Date: " + now.Format(time.RFC1123Z),
		"Message-ID: <" + uuid.NewString() + "@exreport>",
		"X-Priority: " + priorityHeader(priority),
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=" + mw.Boundary(),
	}
	buf.WriteString(strings.Join(hdr, "\r\n") + "\r\n\r\n")

	tp, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeBase64(tp, []byte(body)); err != nil {
		return nil, err
	}

	for _, p := range attachments {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", p, err)
		}
		name := filepath.Base(p)
		ap, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mimetype.Detect(data).String() + "; name=" + strconv.Quote(name)},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {"attachment; filename=" + strconv.Quote(name)},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64(ap, data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBase64 writes data in 76 character lines.
func writeBase64(w io.Writer, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 76 {
		if _, err := io.WriteString(w, enc[:76]+"\r\n"); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err := io.WriteString(w, enc+"\r\n")
	return err
}
