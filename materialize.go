package report

import (
	"context"
	"fmt"
	"time"
)

// DefaultFigureTimeout bounds one figure rasterization when no timeout is
// configured.
const DefaultFigureTimeout = 10 * time.Second

// SaveFigure asks the charting engine to rasterize fig to path, at the size
// attribute when present and the chart's intrinsic size otherwise. Failures
// are reported with [ErrRenderIO] and never retried.
func SaveFigure(ctx context.Context, fig FigureLocal, path string, timeout time.Duration) error {
	if fig.chart == nil {
		return fmt.Errorf("%w: local figure has no chart", ErrValidation)
	}
	if timeout <= 0 {
		timeout = DefaultFigureTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var width, height int
	if s, ok := fig.Size(); ok {
		width, height = s.Width, s.Height
	}
	if err := fig.chart.Save(ctx, path, width, height); err != nil {
		return fmt.Errorf("%w: save figure to %s: %w", ErrRenderIO, path, err)
	}
	return nil
}

// figureBase is the file name stem for a figure: its sanitized name, or
// "figure" when it has none.
func figureBase(fig FigureLocal) string {
	name, ok := fig.Name()
	if !ok {
		return "figure"
	}
	return sanitize(name, "figure")
}

// sanitize maps s onto characters safe in a file name.
func sanitize(s, fallback string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 || string(out) == "." || string(out) == ".." {
		return fallback
	}
	return string(out)
}
