package email_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/bjaus/report"
	"github.com/bjaus/report/email"
	"github.com/bjaus/report/remotetest"
)

type fakeTransport struct {
	mu   sync.Mutex
	sent []*mail.Msg
	err  error
}

func (f *fakeTransport) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msgs...)
	return nil
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func newSender(t *testing.T, reports ...report.Report) (*email.Sender, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{}
	return &email.Sender{
		Server: email.Server{Host: "smtp.example.com"},
		Header: email.Header{
			Sender:  "reports@example.com",
			Subject: "Daily report",
			To:      []string{"ops@example.com"},
			CC:      []string{"lead@example.com"},
		},
		Reports:   reports,
		TempDir:   t.TempDir(),
		Transport: tr,
	}, tr
}

func TestSend(t *testing.T) {
	t.Parallel()
	g := must(report.NewGroup(
		must(report.NewText("all good")),
		must(report.NewFigureLocal(&remotetest.Widget{})),
		must(report.NewFigureLocal(&remotetest.Widget{})),
	))
	s, tr := newSender(t, must(report.NewReport("Daily", g)))
	s.Trailer = "<p>sent by reports</p>"
	require.NoError(t, s.Send(context.Background()))

	require.Len(t, tr.sent, 1)
	msg := tr.sent[0]
	assert.Equal(t, []string{"<reports@example.com>"}, msg.GetFromString())
	assert.Equal(t, []string{"<ops@example.com>"}, msg.GetToString())
	assert.Equal(t, []string{"<lead@example.com>"}, msg.GetCcString())
	assert.Equal(t, []string{"Daily report"}, msg.GetGenHeader(mail.HeaderSubject))

	parts := msg.GetParts()
	require.Len(t, parts, 2)
	assert.Equal(t, mail.TypeTextHTML, parts[0].GetContentType())
	body := string(must(parts[0].GetContent()))
	assert.Contains(t, body, "<h1>Daily</h1>")
	assert.Contains(t, body, `src="cid:figure-0.png"`)
	assert.Contains(t, body, `src="cid:figure-1.png"`)
	assert.Contains(t, body, "<p>sent by reports</p>")
	assert.Equal(t, mail.TypeTextPlain, parts[1].GetContentType())
	assert.Equal(t, email.PlainFallback, string(must(parts[1].GetContent())))

	embeds := msg.GetEmbeds()
	require.Len(t, embeds, 2)
	for i, e := range embeds {
		want := []string{"figure-0.png", "figure-1.png"}[i]
		assert.Equal(t, want, e.Name)
		assert.Equal(t, "<"+want+">", e.Header.Get("Content-ID"))
		var sb strings.Builder
		_, err := e.Writer(&sb)
		require.NoError(t, err)
		assert.Equal(t, string(remotetest.PNGMagic), sb.String())
	}

	left, err := os.ReadDir(s.TempDir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestSendResolvesUnderLock(t *testing.T) {
	t.Parallel()
	srv := remotetest.NewServer()
	target := must(report.TargetByName("ops", "daily"))
	rows, err := report.NewSnapshot([]string{"n"}, [][]any{{1}, {2}, {3}})
	require.NoError(t, err)
	srv.AddTable(target, "rows", rows)

	s, tr := newSender(t, must(report.NewReport("Daily",
		must(report.NewTableRemote(target, "rows", report.WithRowCap(2))))))
	locker := report.NewSemaphoreLocker()
	s.Pipeline = report.Pipeline{
		Resolver: &report.Resolver{Dialer: srv},
		Locker:   locker,
		Policy:   report.LockExclusive,
	}
	require.NoError(t, s.Send(context.Background()))

	body := string(must(tr.sent[0].GetParts()[0].GetContent()))
	assert.Contains(t, body, "truncated to 2 rows")
	assert.Equal(t, []int{3}, srv.MaxRows())

	release, err := locker.Lock(context.Background())
	require.NoError(t, err)
	release()
}

func TestSendValidation(t *testing.T) {
	t.Parallel()
	r := must(report.NewReport("T", must(report.NewText("x"))))
	tests := map[string]func(*email.Sender){
		"no reports":       func(s *email.Sender) { s.Reports = nil },
		"no host":          func(s *email.Sender) { s.Server.Host = "" },
		"bad port":         func(s *email.Sender) { s.Server.Port = 70000 },
		"password no user": func(s *email.Sender) { s.Server.Password = "secret" },
		"no sender":        func(s *email.Sender) { s.Header.Sender = "" },
		"no recipients": func(s *email.Sender) {
			s.Header.To = nil
			s.Header.CC = nil
		},
		"bad address": func(s *email.Sender) { s.Header.To = []string{"not an address"} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s, tr := newSender(t, r)
			mutate(s)
			require.ErrorIs(t, s.Send(context.Background()), report.ErrValidation)
			assert.Empty(t, tr.sent)
		})
	}
}

func TestSendBCCOnly(t *testing.T) {
	t.Parallel()
	s, tr := newSender(t, must(report.NewReport("T", must(report.NewText("x")))))
	s.Header.To = nil
	s.Header.CC = nil
	s.Header.BCC = []string{"audit@example.com"}
	require.NoError(t, s.Send(context.Background()))
	assert.Equal(t, []string{"<audit@example.com>"}, tr.sent[0].GetBccString())
}

func TestSendDeliveryFailure(t *testing.T) {
	t.Parallel()
	s, tr := newSender(t, must(report.NewReport("T", must(report.NewText("x")))))
	tr.err = errors.New("connection refused")
	err := s.Send(context.Background())
	require.ErrorIs(t, err, report.ErrRenderIO)
	assert.ErrorContains(t, err, "connection refused")
}

func TestNewClient(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		server  email.Server
		wantErr require.ErrorAssertionFunc
	}{
		"plain":      {server: email.Server{Host: "smtp.example.com"}, wantErr: require.NoError},
		"port":       {server: email.Server{Host: "smtp.example.com", Port: 2525}, wantErr: require.NoError},
		"ssl":        {server: email.Server{Host: "smtp.example.com", SSL: true}, wantErr: require.NoError},
		"ssl port":   {server: email.Server{Host: "smtp.example.com", SSL: true, Port: 465}, wantErr: require.NoError},
		"basic auth": {server: email.Server{Host: "smtp.example.com", Username: "u", Password: "p"}, wantErr: require.NoError},
		"no host":    {server: email.Server{}, wantErr: require.Error},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := email.NewClient(tt.server)
			tt.wantErr(t, err)
		})
	}
}
