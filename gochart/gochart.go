// Package gochart adapts go-chart charts to the report charting contract.
package gochart

import (
	"bytes"
	"context"
	"fmt"
	"os"

	chart "github.com/wcharczuk/go-chart/v2"
)

// Figure is a go-chart chart that can be rasterized to a PNG file.
type Figure struct {
	chart chart.Chart
}

// New returns a Figure over c. The chart's Width and Height are its
// intrinsic size.
func New(c chart.Chart) *Figure {
	return &Figure{chart: c}
}

// Line returns a single-series line chart of ys against xs.
func Line(title string, xs, ys []float64) *Figure {
	return New(chart.Chart{
		Title: title,
		Series: []chart.Series{
			chart.ContinuousSeries{Name: title, XValues: xs, YValues: ys},
		},
	})
}

// Save renders the chart as PNG to path, overriding the intrinsic size with
// width and height when they are positive. It gives up when ctx is done,
// leaving no file behind.
func (f *Figure) Save(ctx context.Context, path string, width, height int) error {
	c := f.chart
	if width > 0 {
		c.Width = width
	}
	if height > 0 {
		c.Height = height
	}

	done := make(chan error, 1)
	var buf bytes.Buffer
	go func() { done <- c.Render(chart.PNG, &buf) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("render chart %q: %w", c.Title, err)
		}
	case <-ctx.Done():
		return fmt.Errorf("render chart %q: %w", c.Title, ctx.Err())
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
