// Package email renders reports into one HTML message and sends it over
// SMTP. Figures travel as inline attachments referenced by content id.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/bjaus/report"
)

// PlainFallback is the text/plain alternative of every message.
const PlainFallback = "Your email client does not support HTML messages"

// Server is an SMTP endpoint. Username and Password enable PLAIN auth when
// Username is set.
type Server struct {
	Host     string
	Port     int
	SSL      bool
	Username string
	Password string
}

// Validate checks that a host is set.
func (s Server) Validate() error {
	if s.Host == "" {
		return fmt.Errorf("%w: smtp host is required", report.ErrValidation)
	}
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("%w: smtp port %d out of range", report.ErrValidation, s.Port)
	}
	if s.Password != "" && s.Username == "" {
		return fmt.Errorf("%w: smtp password set without username", report.ErrValidation)
	}
	return nil
}

// Header holds the envelope of a message.
type Header struct {
	Sender  string
	Subject string
	To      []string
	CC      []string
	BCC     []string
}

// Validate checks for a sender and at least one recipient.
func (h Header) Validate() error {
	if h.Sender == "" {
		return fmt.Errorf("%w: sender is required", report.ErrValidation)
	}
	if len(h.To)+len(h.CC)+len(h.BCC) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", report.ErrValidation)
	}
	return nil
}

// Transport delivers composed messages. *mail.Client satisfies it.
type Transport interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// NewClient returns an SMTP client for s.
func NewClient(s Server) (*mail.Client, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	var opts []mail.Option
	if s.SSL {
		opts = append(opts, mail.WithSSL())
		if s.Port == 0 {
			opts = append(opts, mail.WithSSLPort(false))
		}
	}
	if s.Port != 0 {
		opts = append(opts, mail.WithPort(s.Port))
	}
	if s.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.Username),
			mail.WithPassword(s.Password),
		)
	}
	c, err := mail.NewClient(s.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client for %s: %w", s.Host, err)
	}
	return c, nil
}

// Sender renders Reports into one message and sends it.
type Sender struct {
	Server  Server
	Header  Header
	Reports []report.Report
	// Trailer is an optional HTML fragment after the last report.
	Trailer       string
	FigureTimeout time.Duration
	// Pipeline resolves the reports and holds the lock while rendering.
	Pipeline report.Pipeline
	// TempDir is the parent of the per-message image directory. Empty
	// means the system temp directory.
	TempDir string
	// Transport sends the message. Nil means an SMTP client for Server.
	Transport Transport
	Logger    *slog.Logger
}

// Validate checks the server, the header, and that there is something to
// send.
func (s *Sender) Validate() error {
	if len(s.Reports) == 0 {
		return fmt.Errorf("%w: reports must be non-empty", report.ErrValidation)
	}
	return errors.Join(s.Server.Validate(), s.Header.Validate())
}

// Send resolves and renders the reports under the pipeline lock, then
// delivers the message.
func (s *Sender) Send(ctx context.Context) error {
	if err := s.Validate(); err != nil {
		return err
	}
	transport := s.Transport
	if transport == nil {
		c, err := NewClient(s.Server)
		if err != nil {
			return err
		}
		transport = c
	}

	var msg *mail.Msg
	err := s.Pipeline.Run(ctx, s.Reports, func(ctx context.Context, local []report.Report) error {
		m, err := s.Compose(ctx, local)
		msg = m
		return err
	})
	if err != nil {
		return err
	}
	if err := transport.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: send mail via %s: %w", report.ErrRenderIO, s.Server.Host, err)
	}
	s.logger().Info("sent report email", "subject", s.Header.Subject, "reports", len(s.Reports))
	return nil
}

// Compose renders already-resolved reports into a message. Figure images
// are read into the message, so nothing on disk outlives the call.
func (s *Sender) Compose(ctx context.Context, reports []report.Report) (*mail.Msg, error) {
	dir, err := os.MkdirTemp(s.TempDir, "report-email-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", report.ErrRenderIO, err)
	}
	defer os.RemoveAll(dir)

	sink := &cidFigures{files: report.SiblingFigures{Dir: dir}}
	r := report.HTMLRenderer{
		Trailer:       s.Trailer,
		Figures:       sink,
		FigureTimeout: s.FigureTimeout,
		Logger:        s.Logger,
	}
	body, err := r.Render(ctx, reports)
	if err != nil {
		return nil, err
	}

	m := mail.NewMsg()
	if err := s.address(m); err != nil {
		return nil, err
	}
	m.Subject(s.Header.Subject)
	m.SetBodyString(mail.TypeTextHTML, body)
	m.AddAlternativeString(mail.TypeTextPlain, PlainFallback)
	for _, e := range sink.placed {
		if err := embed(m, e); err != nil {
			return nil, err
		}
	}
	s.logger().Debug("composed report email", "figures", len(sink.placed), "bytes", len(body))
	return m, nil
}

func (s *Sender) address(m *mail.Msg) error {
	if err := m.From(s.Header.Sender); err != nil {
		return fmt.Errorf("%w: sender: %w", report.ErrValidation, err)
	}
	set := []struct {
		field string
		addrs []string
		fn    func(...string) error
	}{
		{"to", s.Header.To, m.To},
		{"cc", s.Header.CC, m.Cc},
		{"bcc", s.Header.BCC, m.Bcc},
	}
	for _, f := range set {
		if len(f.addrs) == 0 {
			continue
		}
		if err := f.fn(f.addrs...); err != nil {
			return fmt.Errorf("%w: %s: %w", report.ErrValidation, f.field, err)
		}
	}
	return nil
}

func (s *Sender) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

type placed struct {
	path string
	cid  string
}

// cidFigures numbers figures like sibling files and references them by
// content id.
type cidFigures struct {
	files  report.SiblingFigures
	placed []placed
}

func (c *cidFigures) Place(fig report.FigureLocal) (string, string, error) {
	path, name, err := c.files.Place(fig)
	if err != nil {
		return "", "", err
	}
	c.placed = append(c.placed, placed{path: path, cid: name})
	return path, "cid:" + name, nil
}

func embed(m *mail.Msg, p placed) error {
	f, err := os.Open(p.path)
	if err != nil {
		return fmt.Errorf("%w: %w", report.ErrRenderIO, err)
	}
	defer f.Close()
	if err := m.EmbedReader(filepath.Base(p.path), f, mail.WithFileContentID("<"+p.cid+">")); err != nil {
		return fmt.Errorf("%w: embed %s: %w", report.ErrRenderIO, p.cid, err)
	}
	return nil
}
