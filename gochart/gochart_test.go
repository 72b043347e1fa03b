package gochart_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/bjaus/report"
	"github.com/bjaus/report/gochart"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

var _ report.Chart = (*gochart.Figure)(nil)

func TestSave(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		width, height int
	}{
		"intrinsic": {},
		"explicit":  {width: 320, height: 200},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "line.png")
			fig := gochart.Line("latency", []float64{1, 2, 3}, []float64{10, 30, 20})
			require.NoError(t, fig.Save(context.Background(), path, tt.width, tt.height))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, pngMagic))
		})
	}
}

func TestSaveCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "line.png")
	fig := gochart.New(chart.Chart{
		Series: []chart.Series{chart.ContinuousSeries{XValues: []float64{1, 2}, YValues: []float64{1, 2}}},
	})

	// The render may win the race against the canceled context; either way
	// a canceled save leaves no partial file.
	if err := fig.Save(ctx, path, 0, 0); err != nil {
		require.ErrorIs(t, err, context.Canceled)
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	}
}

func TestHTMLFileWithChart(t *testing.T) {
	t.Parallel()
	fig := must(report.NewFigureLocal(gochart.Line("cpu", []float64{0, 1, 2}, []float64{3, 1, 2})))
	fig = must(fig.WithSize(300, 150))
	r := must(report.NewReport("Charts", fig.WithName("cpu")))
	dir := t.TempDir()

	f := report.HTMLFile{Path: filepath.Join(dir, "index.html"), Reports: []report.Report{r}}
	require.NoError(t, f.Save(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "cpu-0.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
