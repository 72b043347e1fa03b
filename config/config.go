// Package config loads report delivery settings from YAML or TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/bjaus/report"
	"github.com/bjaus/report/email"
	"github.com/bjaus/report/slackchat"
)

// Config captures every tunable of a resolve-and-deliver run.
type Config struct {
	// Timeout bounds each remote fetch (e.g. "5s").
	Timeout string `yaml:"timeout" toml:"timeout"`
	// FigureTimeout bounds each figure rasterization (e.g. "10s").
	FigureTimeout string `yaml:"figure_timeout" toml:"figure_timeout"`
	// Lock is none | shared | exclusive.
	Lock string `yaml:"lock" toml:"lock"`
	// Trailer is an optional HTML fragment closing HTML and email output.
	Trailer string      `yaml:"trailer" toml:"trailer"`
	Email   EmailConfig `yaml:"email" toml:"email"`
	Chat    ChatConfig  `yaml:"chat" toml:"chat"`
}

// EmailConfig is the SMTP server and message header.
type EmailConfig struct {
	Host     string   `yaml:"host" toml:"host"`
	Port     int      `yaml:"port" toml:"port"`
	SSL      bool     `yaml:"ssl" toml:"ssl"`
	Username string   `yaml:"username" toml:"username"`
	Password string   `yaml:"password" toml:"password"`
	Sender   string   `yaml:"sender" toml:"sender"`
	Subject  string   `yaml:"subject" toml:"subject"`
	To       []string `yaml:"to" toml:"to"`
	CC       []string `yaml:"cc" toml:"cc"`
	BCC      []string `yaml:"bcc" toml:"bcc"`
}

// ChatConfig is the chat channel and how tables are posted to it.
type ChatConfig struct {
	Token   string `yaml:"token" toml:"token"`
	Channel string `yaml:"channel" toml:"channel"`
	// TableMode is placeholder | text | markdown | csv | tsv.
	TableMode string `yaml:"table_mode" toml:"table_mode"`
	// TableBorder is rounded | ascii | none, used by the text mode.
	TableBorder string `yaml:"table_border" toml:"table_border"`
}

// DefaultConfig returns the settings used when a file leaves a field unset.
func DefaultConfig() Config {
	return Config{
		Timeout:       report.DefaultTimeout.String(),
		FigureTimeout: report.DefaultFigureTimeout.String(),
		Lock:          report.LockShared.String(),
		Chat: ChatConfig{
			TableMode:   report.TablePlaceholder.String(),
			TableBorder: report.BorderRounded.String(),
		},
	}
}

// Load reads the file at path and overlays it on the defaults. The format
// follows the extension: .yaml, .yml, or .toml.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, errors.New("config path is required")
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("%w: unsupported config format %q", report.ErrValidation, ext)
	}

	return cfg, cfg.Validate()
}

// Validate checks durations and enumerations. Email and chat sections are
// validated when they are turned into a sender or client.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.FigureTimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LockPolicy(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Chat.Mode(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Chat.Border(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TimeoutDuration parses Timeout, which must be positive.
func (c Config) TimeoutDuration() (time.Duration, error) {
	return positive("timeout", c.Timeout)
}

// FigureTimeoutDuration parses FigureTimeout, which must be positive.
func (c Config) FigureTimeoutDuration() (time.Duration, error) {
	return positive("figure_timeout", c.FigureTimeout)
}

func positive(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", report.ErrValidation, field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %s", report.ErrValidation, field, s)
	}
	return d, nil
}

// LockPolicy parses Lock.
func (c Config) LockPolicy() (report.LockPolicy, error) {
	return report.ParseLockPolicy(c.Lock)
}

// Mode parses TableMode.
func (c ChatConfig) Mode() (report.TableMode, error) {
	return report.ParseTableMode(c.TableMode)
}

// Border parses TableBorder.
func (c ChatConfig) Border() (report.TableBorder, error) {
	return report.ParseTableBorder(c.TableBorder)
}

// Slack returns the chat client settings.
func (c ChatConfig) Slack() slackchat.Config {
	return slackchat.Config{Token: c.Token, Channel: c.Channel}
}

// Server returns the SMTP server settings.
func (e EmailConfig) Server() email.Server {
	return email.Server{
		Host:     e.Host,
		Port:     e.Port,
		SSL:      e.SSL,
		Username: e.Username,
		Password: e.Password,
	}
}

// Header returns the message envelope.
func (e EmailConfig) Header() email.Header {
	return email.Header{
		Sender:  e.Sender,
		Subject: e.Subject,
		To:      e.To,
		CC:      e.CC,
		BCC:     e.BCC,
	}
}

// Pipeline returns a pipeline resolving through dialer with the configured
// timeout and lock policy.
func (c Config) Pipeline(dialer report.Dialer, locker report.Locker) (report.Pipeline, error) {
	timeout, err := c.TimeoutDuration()
	if err != nil {
		return report.Pipeline{}, err
	}
	policy, err := c.LockPolicy()
	if err != nil {
		return report.Pipeline{}, err
	}
	return report.Pipeline{
		Resolver: &report.Resolver{Dialer: dialer, Timeout: timeout},
		Locker:   locker,
		Policy:   policy,
	}, nil
}

// EmailSender returns a sender for reports built from c.
func (c Config) EmailSender(p report.Pipeline, reports ...report.Report) (*email.Sender, error) {
	figureTimeout, err := c.FigureTimeoutDuration()
	if err != nil {
		return nil, err
	}
	s := &email.Sender{
		Server:        c.Email.Server(),
		Header:        c.Email.Header(),
		Reports:       reports,
		Trailer:       c.Trailer,
		FigureTimeout: figureTimeout,
		Pipeline:      p,
		Logger:        p.Logger,
	}
	return s, s.Validate()
}

// ChatPublisher returns a Slack publisher built from c.
func (c Config) ChatPublisher(p report.Pipeline) (*slackchat.Publisher, error) {
	figureTimeout, err := c.FigureTimeoutDuration()
	if err != nil {
		return nil, err
	}
	mode, err := c.Chat.Mode()
	if err != nil {
		return nil, err
	}
	border, err := c.Chat.Border()
	if err != nil {
		return nil, err
	}
	client, err := slackchat.New(c.Chat.Slack())
	if err != nil {
		return nil, err
	}
	return &slackchat.Publisher{
		Client:        client,
		Pipeline:      p,
		TableMode:     mode,
		Border:        border,
		FigureTimeout: figureTimeout,
		Logger:        p.Logger,
	}, nil
}

// HTMLFile returns a standalone HTML file writer for reports built from c.
func (c Config) HTMLFile(path string, p report.Pipeline, reports ...report.Report) (report.HTMLFile, error) {
	figureTimeout, err := c.FigureTimeoutDuration()
	if err != nil {
		return report.HTMLFile{}, err
	}
	return report.HTMLFile{
		Path:          path,
		Reports:       reports,
		Trailer:       c.Trailer,
		FigureTimeout: figureTimeout,
		Pipeline:      p,
	}, nil
}
