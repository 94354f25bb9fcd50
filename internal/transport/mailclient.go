package transport

import (
	"context"
	"net/url"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"exception-reporter/internal/reporterr"
)

// maxMailtoBody bounds the body carried in a mailto URI; shell handlers
// reject very long URIs.
const maxMailtoBody = 16000

// Shell opens a URI with the user's default handler.
type Shell interface {
	Open(ctx context.Context, uri string) error
}

// MailClientSender hands the report to the default mail program.
type MailClientSender struct {
	deps Deps
}

func (s *MailClientSender) ConnectingMessage() string {
	return "Launching email program..."
}

func (s *MailClientSender) Description() string { return "Email Client" }

func (s *MailClientSender) Send(ctx context.Context, text string) error {
	to := s.deps.Config.Send.EmailReportAddress

	if s.deps.Attacher != nil {
		var paths []string
		b, err := s.deps.Attacher.Attach(ctx, s.deps.Config, s.deps.Screenshot, func(p string) { paths = append(paths, p) })
		if err != nil {
			s.deps.Logger.Warn("attachments unavailable for mail client", zap.Error(err))
		}
		s.trackBundle(b.Archive, b.Screenshot)
		if len(paths) > 0 {
			text += "\n\nPlease attach:\n" + strings.Join(paths, "\n")
		}
	}

	uri := MailtoURI(to, subject(s.deps.Config), text)
	if err := s.deps.Shell.Open(ctx, uri); err != nil {
		return reporterr.Wrap(reporterr.CodeTransportSetup, "open mail client", err)
	}
	s.deps.Sink.Completed(true)
	return nil
}

func (s *MailClientSender) trackBundle(paths ...string) {
	for _, p := range paths {
		if p != "" {
			s.deps.TrackFile(p)
		}
	}
}

// MailtoURI builds a mailto URI with an escaped subject and body.
func MailtoURI(to, subject, body string) string {
	if len(body) > maxMailtoBody {
		n := maxMailtoBody
		for n > 0 && !utf8.RuneStart(body[n]) {
			n--
		}
		body = body[:n] + "\n[truncated]"
	}
	q := "subject=" + mailtoEscape(subject) + "&body=" + mailtoEscape(body)
	return "mailto:" + url.PathEscape(to) + "?" + q
}

func mailtoEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
