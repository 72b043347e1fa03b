// Package slackchat delivers reports to a Slack channel.
package slackchat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"fortio.org/safecast"
	"github.com/slack-go/slack"

	"github.com/bjaus/report"
)

// ErrConfig is returned when a Client is built from an incomplete Config.
var ErrConfig = errors.New("slackchat: invalid config")

// Config names the bot token and the channel posted to.
type Config struct {
	Token   string
	Channel string
}

// Validate reports whether both fields are set.
func (c Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("%w: token is required", ErrConfig)
	}
	if c.Channel == "" {
		return fmt.Errorf("%w: channel is required", ErrConfig)
	}
	return nil
}

// API is the subset of *slack.Client used to post.
type API interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
}

// Client posts to one Slack channel. It implements [report.ChatClient].
type Client struct {
	api     API
	channel string
}

// New returns a Client for cfg backed by the Slack Web API.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewWithAPI(slack.New(cfg.Token), cfg.Channel), nil
}

// NewWithAPI returns a Client posting to channel through api.
func NewWithAPI(api API, channel string) *Client {
	return &Client{api: api, channel: channel}
}

// PostMessage posts msg as a block message with msg.Text as its fallback.
func (c *Client) PostMessage(ctx context.Context, msg report.ChatMessage) error {
	_, _, err := c.api.PostMessageContext(ctx, c.channel,
		slack.MsgOptionText(msg.Text, false),
		slack.MsgOptionBlocks(Blocks(msg)...),
	)
	if err != nil {
		return fmt.Errorf("post to %s: %w", c.channel, err)
	}
	return nil
}

// UploadFile uploads the file at up.Path to the channel.
func (c *Client) UploadFile(ctx context.Context, up report.ChatUpload) error {
	info, err := os.Stat(up.Path)
	if err != nil {
		return err
	}
	size, err := safecast.Conv[int](info.Size())
	if err != nil {
		return fmt.Errorf("upload %s: %w", up.Filename, err)
	}
	_, err = c.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		File:     up.Path,
		FileSize: size,
		Filename: up.Filename,
		Title:    up.Title,
		Channel:  c.channel,
	})
	if err != nil {
		return fmt.Errorf("upload %s to %s: %w", up.Filename, c.channel, err)
	}
	return nil
}

// SendText posts a single markdown message.
func (c *Client) SendText(ctx context.Context, text string) error {
	return c.PostMessage(ctx, report.ChatMessage{
		Text:   text,
		Blocks: []report.ChatBlock{{Kind: report.BlockSection, Text: text, Markdown: true}},
	})
}

// Blocks converts the parts of msg to Slack layout blocks.
func Blocks(msg report.ChatMessage) []slack.Block {
	blocks := make([]slack.Block, 0, len(msg.Blocks))
	for _, b := range msg.Blocks {
		typ := slack.PlainTextType
		if b.Markdown {
			typ = slack.MarkdownType
		}
		text := slack.NewTextBlockObject(typ, b.Text, false, false)
		switch b.Kind {
		case report.BlockContext:
			blocks = append(blocks, slack.NewContextBlock("", text))
		default:
			blocks = append(blocks, slack.NewSectionBlock(text, nil, nil))
		}
	}
	return blocks
}

// Publisher resolves reports and posts them through a Client.
type Publisher struct {
	Client        *Client
	Pipeline      report.Pipeline
	TableMode     report.TableMode
	Border        report.TableBorder
	FigureTimeout time.Duration
	Logger        *slog.Logger
}

// Send resolves reports under the pipeline lock and posts them in order.
func (p *Publisher) Send(ctx context.Context, reports ...report.Report) error {
	if p.Client == nil {
		return fmt.Errorf("%w: publisher has no client", ErrConfig)
	}
	r := &report.ChatRenderer{
		Client:        p.Client,
		TableMode:     p.TableMode,
		Border:        p.Border,
		FigureTimeout: p.FigureTimeout,
		Logger:        p.Logger,
	}
	return p.Pipeline.Run(ctx, reports, func(ctx context.Context, local []report.Report) error {
		return r.Send(ctx, local...)
	})
}
