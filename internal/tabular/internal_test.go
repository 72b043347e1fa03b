package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCellTruncates(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "he...", formatCell("hello world", 5, alignLeft))
	assert.Equal(t, "hel", formatCell("hello", 3, alignLeft))
}

func TestFormatCellPads(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ab   ", formatCell("ab", 5, alignLeft))
	assert.Equal(t, "   ab", formatCell("ab", 5, alignRight))
}

func TestFormatCellWide(t *testing.T) {
	t.Parallel()
	// "你" occupies two columns.
	assert.Equal(t, "你好 ", formatCell("你好", 5, alignLeft))
}

func TestFormatCellFlattensNewlines(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a b", formatCell("a\nb", 3, alignLeft))
}

func TestComputeWidths(t *testing.T) {
	t.Parallel()
	got := computeWidths(2, []string{"a", "bb"}, [][]string{{"ccc", "d"}, {"e\nf"}})
	assert.Equal(t, []int{3, 2}, got)
}

func TestColumnAligns(t *testing.T) {
	t.Parallel()
	src := fakeSource{
		cols: []string{"n", "s", "empty"},
		rows: [][]any{{1, "x", nil}, {2.5, "y", nil}},
	}
	assert.Equal(t, []alignment{alignRight, alignLeft, alignLeft}, columnAligns(src, 3))
}

type fakeSource struct {
	cols []string
	rows [][]any
}

func (f fakeSource) Columns() []string { return f.cols }
func (f fakeSource) Len() int          { return len(f.rows) }
func (f fakeSource) Row(i int) []any   { return f.rows[i] }
