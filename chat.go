package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bjaus/report/internal/tabular"
)

// TablePlaceholderText is posted in place of a table under [TablePlaceholder].
const TablePlaceholderText = "<table rendering not implemented>"

// BlockKind distinguishes the parts of a chat message.
type BlockKind int

const (
	// BlockSection is the message body.
	BlockSection BlockKind = iota
	// BlockContext is a small secondary line, such as an item name.
	BlockContext
)

// ChatBlock is one part of a chat message.
type ChatBlock struct {
	Kind     BlockKind
	Text     string
	Markdown bool
}

// ChatMessage is one outbound chat message. Text is the plain fallback shown
// by clients that do not render blocks.
type ChatMessage struct {
	Text   string
	Blocks []ChatBlock
}

// ChatUpload is one file attachment posted to the channel.
type ChatUpload struct {
	Path     string
	Filename string
	Title    string
}

// ChatClient posts to a single chat channel.
type ChatClient interface {
	PostMessage(ctx context.Context, msg ChatMessage) error
	UploadFile(ctx context.Context, up ChatUpload) error
}

// TableMode selects how the chat renderer presents a local table.
type TableMode int

const (
	// TablePlaceholder posts TablePlaceholderText.
	TablePlaceholder TableMode = iota
	// TableText posts a bordered monospace table in a code block.
	TableText
	// TableMarkdown posts a Markdown table, for chat platforms that render one.
	TableMarkdown
	// TableCSV uploads the table as a CSV attachment.
	TableCSV
	// TableTSV uploads the table as a tab-separated attachment.
	TableTSV
)

var tableModeNames = map[TableMode]string{
	TablePlaceholder: "placeholder",
	TableText:        "text",
	TableMarkdown:    "markdown",
	TableCSV:         "csv",
	TableTSV:         "tsv",
}

// String returns the mode name accepted by ParseTableMode.
func (m TableMode) String() string {
	if s, ok := tableModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("TableMode(%d)", int(m))
}

// ParseTableMode parses "placeholder", "text", "markdown", "csv", or "tsv".
func ParseTableMode(s string) (TableMode, error) {
	for m, name := range tableModeNames {
		if s == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown table mode %q", ErrValidation, s)
}

func (m TableMode) upload() bool { return m == TableCSV || m == TableTSV }

// TableBorder selects the border drawn around [TableText] tables.
type TableBorder int

const (
	// BorderRounded draws box-drawing borders with rounded corners.
	BorderRounded TableBorder = iota
	// BorderASCII draws borders with +, - and |.
	BorderASCII
	// BorderNone separates columns with spaces only.
	BorderNone
)

var tableBorders = map[TableBorder]struct {
	name  string
	style tabular.BorderStyle
}{
	BorderRounded: {"rounded", tabular.BorderRounded},
	BorderASCII:   {"ascii", tabular.BorderASCII},
	BorderNone:    {"none", tabular.BorderNone},
}

// String returns the border name accepted by ParseTableBorder.
func (b TableBorder) String() string {
	if t, ok := tableBorders[b]; ok {
		return t.name
	}
	return fmt.Sprintf("TableBorder(%d)", int(b))
}

// ParseTableBorder parses "rounded", "ascii", or "none".
func ParseTableBorder(s string) (TableBorder, error) {
	for b, t := range tableBorders {
		if s == t.name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown table border %q", ErrValidation, s)
}

// chatColumnWidth caps column widths of text tables posted to chat.
const chatColumnWidth = 40

// ChatRenderer posts reports to a chat channel, one message per item. Groups
// are flattened into their children in order.
type ChatRenderer struct {
	Client    ChatClient
	TableMode TableMode
	// Border applies to TableText only.
	Border        TableBorder
	FigureTimeout time.Duration
	// TempDir holds figure and attachment files while they are uploaded.
	// Empty means the system temp directory.
	TempDir string
	Logger  *slog.Logger
}

// Send posts each report in order: a title message followed by the report's
// items. Every report must be resolved; a remote item fails with
// ErrInternalConsistency.
func (r *ChatRenderer) Send(ctx context.Context, reports ...Report) error {
	if r.Client == nil {
		return fmt.Errorf("%w: chat renderer has no client", ErrValidation)
	}
	for _, rep := range reports {
		w := chatWalker{r: r, log: loggerOr(r.Logger).With("report", rep.Title())}
		if err := w.report(ctx, rep); err != nil {
			return fmt.Errorf("send report %q: %w", rep.Title(), err)
		}
	}
	return nil
}

type chatWalker struct {
	r     *ChatRenderer
	trail trail
	log   *slog.Logger
}

func (w *chatWalker) report(ctx context.Context, rep Report) error {
	err := w.post(ctx, ChatMessage{
		Text:   rep.Title(),
		Blocks: []ChatBlock{{Kind: BlockSection, Text: "*" + rep.Title() + "*", Markdown: true}},
	})
	if err != nil {
		return err
	}
	if err := w.item(ctx, rep.Item()); err != nil {
		return err
	}
	if !w.trail.empty() {
		return fmt.Errorf("%w: unbalanced item trail after send", ErrInternalConsistency)
	}
	return nil
}

func (w *chatWalker) item(ctx context.Context, item Item) error {
	name, named, err := nameOf(item)
	if err != nil {
		return err
	}
	id := w.trail.push(item)

	switch it := item.(type) {
	case Text:
		err = w.text(ctx, it, name, named)
	case TableLocal:
		err = w.table(ctx, it, name, named)
	case FigureLocal:
		err = w.figure(ctx, it, name)
	case Group:
		for _, child := range it.items {
			if err = w.item(ctx, child); err != nil {
				break
			}
		}
	case TableRemote, FigureRemote:
		err = fmt.Errorf("%w: unresolved remote item %s reached chat renderer", ErrInternalConsistency, Debug(item))
	default:
		err = fmt.Errorf("%w: unhandled item %T", ErrInternalConsistency, item)
	}
	if err != nil {
		return err
	}
	return w.trail.pop(id)
}

func (w *chatWalker) text(ctx context.Context, t Text, name string, named bool) error {
	msg := ChatMessage{Text: t.value}
	if named {
		msg.Blocks = append(msg.Blocks, ChatBlock{Kind: BlockContext, Text: name})
	}
	if md, ok := t.Markdown(); ok {
		msg.Blocks = append(msg.Blocks, ChatBlock{Kind: BlockSection, Text: md, Markdown: true})
	} else {
		msg.Blocks = append(msg.Blocks, ChatBlock{Kind: BlockSection, Text: t.value})
	}
	return w.post(ctx, msg)
}

func (w *chatWalker) table(ctx context.Context, t TableLocal, name string, named bool) error {
	if w.r.TableMode.upload() {
		return w.uploadTable(ctx, t, name, named)
	}

	var body ChatBlock
	switch w.r.TableMode {
	case TablePlaceholder:
		body = ChatBlock{Kind: BlockSection, Text: TablePlaceholderText}
	case TableText, TableMarkdown:
		border, ok := tableBorders[w.r.Border]
		if !ok {
			return fmt.Errorf("%w: unknown table border %v", ErrValidation, w.r.Border)
		}
		f := tabular.Text
		if w.r.TableMode == TableMarkdown {
			f = tabular.Markdown
		}
		out, err := tabular.Marshal(f, t.table, tabular.Options{Border: border.style, MaxWidth: chatColumnWidth})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRenderIO, err)
		}
		text := string(out)
		if f == tabular.Text {
			text = "```\n" + text + "```"
		}
		body = ChatBlock{Kind: BlockSection, Text: text, Markdown: true}
	default:
		return fmt.Errorf("%w: unknown table mode %v", ErrValidation, w.r.TableMode)
	}

	msg := ChatMessage{Text: TablePlaceholderText}
	if named {
		msg.Text = name
		msg.Blocks = append(msg.Blocks, ChatBlock{Kind: BlockContext, Text: name})
	}
	msg.Blocks = append(msg.Blocks, body)
	if t.Truncated() {
		msg.Blocks = append(msg.Blocks, ChatBlock{Kind: BlockContext, Text: fmt.Sprintf("truncated to %d rows", t.table.Len())})
	}
	return w.post(ctx, msg)
}

func (w *chatWalker) uploadTable(ctx context.Context, t TableLocal, name string, named bool) error {
	stem := "table"
	if named {
		stem = sanitize(name, stem)
	}
	format, err := tabular.ParseFormat(w.r.TableMode.String())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	ext := "." + format.String()
	f, err := os.CreateTemp(w.r.TempDir, stem+"-*"+ext)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRenderIO, err)
	}
	defer os.Remove(f.Name())
	werr := tabular.Write(f, format, t.table, tabular.Options{})
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("%w: %w", ErrRenderIO, werr)
	}
	title := name
	if t.Truncated() {
		title = strings.TrimSpace(fmt.Sprintf("%s (truncated to %d rows)", name, t.table.Len()))
	}
	return w.upload(ctx, ChatUpload{Path: f.Name(), Filename: stem + ext, Title: title})
}

func (w *chatWalker) figure(ctx context.Context, fig FigureLocal, name string) error {
	stem := figureBase(fig)
	f, err := os.CreateTemp(w.r.TempDir, stem+"-*.png")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRenderIO, err)
	}
	path := f.Name()
	defer os.Remove(path)
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrRenderIO, err)
	}
	if err := SaveFigure(ctx, fig, path, w.r.FigureTimeout); err != nil {
		return err
	}
	return w.upload(ctx, ChatUpload{Path: path, Filename: stem + ".png", Title: name})
}

func (w *chatWalker) post(ctx context.Context, msg ChatMessage) error {
	if err := w.r.Client.PostMessage(ctx, msg); err != nil {
		return fmt.Errorf("%w: post message: %w", ErrRenderIO, err)
	}
	w.log.Debug("posted chat message", "blocks", len(msg.Blocks))
	return nil
}

func (w *chatWalker) upload(ctx context.Context, up ChatUpload) error {
	if err := w.r.Client.UploadFile(ctx, up); err != nil {
		return fmt.Errorf("%w: upload %s: %w", ErrRenderIO, up.Filename, err)
	}
	w.log.Debug("uploaded chat file", "filename", up.Filename)
	return nil
}
