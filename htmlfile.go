package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// HTMLFile is a standalone HTML document written to Path, with figure images
// written as numbered siblings so the directory is self-contained.
type HTMLFile struct {
	Path          string
	Reports       []Report
	Trailer       string
	FigureTimeout time.Duration
	// Pipeline resolves the reports and holds the lock while rendering.
	Pipeline Pipeline
}

// Save resolves the reports, renders them, and writes the document and its
// images. Missing parent directories are created.
func (f HTMLFile) Save(ctx context.Context) error {
	if f.Path == "" {
		return fmt.Errorf("%w: html file path must be non-empty", ErrValidation)
	}
	dir := filepath.Dir(f.Path)
	return f.Pipeline.Run(ctx, f.Reports, func(ctx context.Context, local []Report) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrRenderIO, err)
		}
		r := HTMLRenderer{
			Trailer:       f.Trailer,
			Figures:       &SiblingFigures{Dir: dir},
			FigureTimeout: f.FigureTimeout,
			Logger:        f.Pipeline.Logger,
		}
		doc, err := r.Render(ctx, local)
		if err != nil {
			return err
		}
		return writeLines(f.Path, doc)
	})
}

// writeLines writes s to path with every line terminated by a single "\n".
func writeLines(path, s string) error {
	var sb strings.Builder
	for line := range strings.SplitSeq(strings.TrimSuffix(s, "\n"), "\n") {
		sb.WriteString(strings.TrimSuffix(line, "\r"))
		sb.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrRenderIO, err)
	}
	return nil
}
