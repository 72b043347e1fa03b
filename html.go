package report

import (
	"context"
	_ "embed"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bjaus/report/internal/tabular"
)

//go:embed inline.css
var inlineCSS string

// FigureSink decides where a figure image is written and how the document
// refers to it.
type FigureSink interface {
	// Place returns the file the figure is rasterized to and the value of
	// the img src attribute that references it.
	Place(fig FigureLocal) (path, src string, err error)
}

// TempFigures writes each figure to a fresh temporary file and references it
// by absolute path. The directory is created on first use under Parent (the
// system temp directory when empty) and left in place for the caller.
type TempFigures struct {
	Parent string
	dir    string
}

// Place reserves a temp file for fig; src is its absolute path.
func (t *TempFigures) Place(fig FigureLocal) (string, string, error) {
	if t.dir == "" {
		dir, err := os.MkdirTemp(t.Parent, "report-html-*")
		if err != nil {
			return "", "", fmt.Errorf("%w: %w", ErrRenderIO, err)
		}
		t.dir = dir
	}
	f, err := os.CreateTemp(t.dir, figureBase(fig)+"-*.png")
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrRenderIO, err)
	}
	if err := f.Close(); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrRenderIO, err)
	}
	abs, err := filepath.Abs(f.Name())
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrRenderIO, err)
	}
	return abs, abs, nil
}

// Dir returns the temporary directory, or "" if no figure was placed.
func (t *TempFigures) Dir() string { return t.dir }

// SiblingFigures writes figures as <name>-<n>.png into Dir, numbered from 0
// in traversal order, and references them by file name so the directory can
// be moved as a unit.
type SiblingFigures struct {
	Dir  string
	next int
}

// Place returns the next numbered path in Dir; src is the bare file name.
func (s *SiblingFigures) Place(fig FigureLocal) (string, string, error) {
	name := fmt.Sprintf("%s-%d.png", figureBase(fig), s.next)
	s.next++
	return filepath.Join(s.Dir, name), name, nil
}

// HTMLRenderer renders a sequence of local reports into one HTML document.
type HTMLRenderer struct {
	// Trailer is an optional HTML fragment appended after the last report.
	Trailer string
	// Figures places figure images. Nil means a new TempFigures per render.
	Figures       FigureSink
	FigureTimeout time.Duration
	Logger        *slog.Logger
}

// Render returns the HTML document for reports, in order. Every report must
// be resolved; a remote item fails with ErrInternalConsistency.
func (r *HTMLRenderer) Render(ctx context.Context, reports []Report) (string, error) {
	w := &htmlWalker{
		figures: r.Figures,
		timeout: r.FigureTimeout,
		log:     loggerOr(r.Logger),
	}
	if w.figures == nil {
		w.figures = &TempFigures{}
	}
	w.header()
	for _, rep := range reports {
		if err := w.report(ctx, rep); err != nil {
			return "", fmt.Errorf("render report %q: %w", rep.Title(), err)
		}
	}
	w.trailer(r.Trailer)
	if !w.trail.empty() {
		return "", fmt.Errorf("%w: unbalanced item trail after render", ErrInternalConsistency)
	}
	return w.sb.String(), nil
}

type htmlWalker struct {
	sb      strings.Builder
	indent  int
	trail   trail
	figures FigureSink
	timeout time.Duration
	log     *slog.Logger
}

func (w *htmlWalker) header() {
	w.sameLine("<html>")
	w.indent++
	w.nextLine("<head>")
	w.indent++
	w.nextLine("<style>")
	w.indent++
	for _, line := range strings.Split(strings.TrimRight(inlineCSS, "\n"), "\n") {
		w.nextLine(line)
	}
	w.indent--
	w.nextLine("</style>")
	w.indent--
	w.nextLine("</head>")
	w.nextLine("<body>")
	w.indent++
}

func (w *htmlWalker) trailer(trailer string) {
	if trailer != "" {
		w.nextLine(`<div data-report-type="trailer">`)
		w.sameLine(trailer)
		w.sameLine("</div>")
	}
	w.indent--
	w.nextLine("</body>")
	w.indent--
	w.nextLine("</html>")
	w.sb.WriteString("\n")
}

func (w *htmlWalker) report(ctx context.Context, rep Report) error {
	w.log.Debug("rendering report", "title", rep.Title())
	w.nextLine(`<div data-report-type="report">`)
	w.indent++
	w.nextLine(fmt.Sprintf("<!-- generated at %s -->", comment(rep.Timestamp().Format(time.RFC3339))))
	w.nextLine(fmt.Sprintf("<!-- %s -->", comment(rep.Debug())))
	w.nextLine(fmt.Sprintf("<h1>%s</h1>", html.EscapeString(rep.Title())))
	if err := w.item(ctx, rep.Item()); err != nil {
		return err
	}
	w.indent--
	w.sameLine("</div>")
	return nil
}

func (w *htmlWalker) item(ctx context.Context, item Item) error {
	tag, err := TypeTag(item)
	if err != nil {
		return err
	}
	name, named, err := nameOf(item)
	if err != nil {
		return err
	}
	w.nextLine(fmt.Sprintf(`<div data-report-type="%s">`, tag))
	if named {
		level := HeadingLevel(w.trail.depth())
		w.nextLine(fmt.Sprintf("<h%d>%s</h%d>", level, html.EscapeString(name), level))
	}
	id := w.trail.push(item)
	w.indent++

	switch it := item.(type) {
	case Text:
		w.sameLine(html.EscapeString(it.value))
	case TableLocal:
		if err := w.table(it); err != nil {
			return err
		}
	case FigureLocal:
		if err := w.figure(ctx, it); err != nil {
			return err
		}
	case Group:
		w.nextLine("<ul>")
		for _, child := range it.items {
			w.nextLine("<li>")
			if err := w.item(ctx, child); err != nil {
				return err
			}
			w.sameLine("</li>")
		}
		w.nextLine("</ul>")
	case TableRemote, FigureRemote:
		return fmt.Errorf("%w: unresolved remote %s %s", ErrInternalConsistency, tag, Debug(item))
	default:
		return fmt.Errorf("%w: unhandled item %T", ErrInternalConsistency, item)
	}

	w.indent--
	if err := w.trail.pop(id); err != nil {
		return err
	}
	w.sameLine("</div>")
	return nil
}

func (w *htmlWalker) table(t TableLocal) error {
	w.sb.WriteString("\n")
	if err := tabular.Write(&w.sb, tabular.HTML, t.table, tabular.Options{}); err != nil {
		return fmt.Errorf("%w: %w", ErrRenderIO, err)
	}
	if t.Truncated() {
		w.sameLine(fmt.Sprintf(`<div data-report-type="truncated">truncated to %d rows</div>`, t.table.Len()))
	}
	return nil
}

func (w *htmlWalker) figure(ctx context.Context, fig FigureLocal) error {
	path, src, err := w.figures.Place(fig)
	if err != nil {
		return err
	}
	if err := SaveFigure(ctx, fig, path, w.timeout); err != nil {
		return err
	}
	w.log.Debug("saved figure", "path", path)
	src = html.EscapeString(src)
	if s, ok := fig.Size(); ok {
		w.sameLine(fmt.Sprintf(`<img src="%s" width="%d" height="%d" style="display: block;" />`, src, s.Width, s.Height))
	} else {
		w.sameLine(fmt.Sprintf(`<img src="%s" style="display: block;" />`, src))
	}
	return nil
}

func (w *htmlWalker) nextLine(s string) {
	w.sb.WriteString("\n")
	w.sb.WriteString(strings.Repeat(" ", w.indent))
	w.sb.WriteString(s)
}

func (w *htmlWalker) sameLine(s string) { w.sb.WriteString(s) }

// comment escapes s for use inside an HTML comment.
func comment(s string) string {
	s = html.EscapeString(s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "- -")
	}
	return s
}
