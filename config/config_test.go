package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/report"
	"github.com/bjaus/report/config"
	"github.com/bjaus/report/remotetest"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate())

	timeout, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)

	figureTimeout, err := cfg.FigureTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, figureTimeout)

	policy, err := cfg.LockPolicy()
	require.NoError(t, err)
	assert.Equal(t, report.LockShared, policy)

	mode, err := cfg.Chat.Mode()
	require.NoError(t, err)
	assert.Equal(t, report.TablePlaceholder, mode)
}

func TestLoad(t *testing.T) {
	t.Parallel()
	yamlDoc := `
timeout: 2s
lock: exclusive
email:
  host: smtp.example.com
  port: 587
  sender: reports@example.com
  to: [ops@example.com]
chat:
  channel: C1
  table_mode: tsv
`
	tomlDoc := `
timeout = "2s"
lock = "exclusive"

[email]
host = "smtp.example.com"
port = 587
sender = "reports@example.com"
to = ["ops@example.com"]

[chat]
channel = "C1"
table_mode = "tsv"
`
	tests := map[string]struct {
		name    string
		content string
	}{
		"yaml": {name: "report.yaml", content: yamlDoc},
		"yml":  {name: "report.yml", content: yamlDoc},
		"toml": {name: "report.toml", content: tomlDoc},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg, err := config.Load(writeFile(t, tt.name, tt.content))
			require.NoError(t, err)

			assert.Equal(t, "2s", cfg.Timeout)
			assert.Equal(t, "10s", cfg.FigureTimeout, "unset fields keep defaults")
			assert.Equal(t, "exclusive", cfg.Lock)
			assert.Equal(t, "smtp.example.com", cfg.Email.Host)
			assert.Equal(t, 587, cfg.Email.Port)
			assert.Equal(t, []string{"ops@example.com"}, cfg.Email.To)
			assert.Equal(t, "C1", cfg.Chat.Channel)

			mode, err := cfg.Chat.Mode()
			require.NoError(t, err)
			assert.Equal(t, report.TableTSV, mode)
			border, err := cfg.Chat.Border()
			require.NoError(t, err)
			assert.Equal(t, report.BorderRounded, border, "unset border keeps default")
		})
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		name    string
		content string
	}{
		"bad duration":    {name: "c.yaml", content: "timeout: soon\n"},
		"zero timeout":    {name: "c.yaml", content: "timeout: 0s\n"},
		"bad lock":        {name: "c.yaml", content: "lock: global\n"},
		"bad table mode":  {name: "c.toml", content: "[chat]\ntable_mode = \"image\"\n"},
		"bad border":      {name: "c.yaml", content: "chat:\n  table_border: double\n"},
		"bad yaml":        {name: "c.yaml", content: "timeout: [\n"},
		"bad toml":        {name: "c.toml", content: "timeout = \n"},
		"unknown format":  {name: "c.json", content: "{}"},
		"negative figure": {name: "c.yaml", content: "figure_timeout: -1s\n"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := config.Load(writeFile(t, tt.name, tt.content))
			require.Error(t, err)
		})
	}

	_, err := config.Load("")
	require.Error(t, err)
	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuilders(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultConfig()
	cfg.Timeout = "3s"
	cfg.Lock = "none"
	cfg.Trailer = "<p>bye</p>"
	cfg.Email = config.EmailConfig{
		Host:     "smtp.example.com",
		Port:     465,
		SSL:      true,
		Username: "u",
		Password: "p",
		Sender:   "reports@example.com",
		Subject:  "Daily",
		BCC:      []string{"audit@example.com"},
	}
	cfg.Chat = config.ChatConfig{Token: "xoxb", Channel: "C1", TableMode: "text", TableBorder: "ascii"}

	srv := remotetest.NewServer()
	p, err := cfg.Pipeline(srv, nil)
	require.NoError(t, err)
	assert.Equal(t, report.LockNone, p.Policy)
	assert.Equal(t, 3*time.Second, p.Resolver.Timeout)

	r, err := report.NewReport("T", must(report.NewText("x")))
	require.NoError(t, err)

	sender, err := cfg.EmailSender(p, r)
	require.NoError(t, err)
	assert.Equal(t, "<p>bye</p>", sender.Trailer)
	assert.Equal(t, 10*time.Second, sender.FigureTimeout)
	assert.Equal(t, 465, sender.Server.Port)
	assert.True(t, sender.Server.SSL)
	assert.Equal(t, []string{"audit@example.com"}, sender.Header.BCC)

	pub, err := cfg.ChatPublisher(p)
	require.NoError(t, err)
	assert.Equal(t, report.TableText, pub.TableMode)
	assert.Equal(t, report.BorderASCII, pub.Border)

	file, err := cfg.HTMLFile("out/index.html", p, r)
	require.NoError(t, err)
	assert.Equal(t, "out/index.html", file.Path)
	assert.Equal(t, "<p>bye</p>", file.Trailer)

	cfg.Email.Sender = ""
	_, err = cfg.EmailSender(p, r)
	require.ErrorIs(t, err, report.ErrValidation)

	cfg.Chat.Token = ""
	_, err = cfg.ChatPublisher(p)
	require.Error(t, err)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
