package report_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/bjaus/report"
	"github.com/bjaus/report/remotetest"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func text(t *testing.T, s string) report.Text {
	t.Helper()
	return must(report.NewText(s))
}

func group(t *testing.T, items ...report.Item) report.Group {
	t.Helper()
	return must(report.NewGroup(items...))
}

func rep(t *testing.T, title string, item report.Item) report.Report {
	t.Helper()
	return must(report.NewReport(title, item))
}

// numbers returns a single-column table holding 0..n-1.
func numbers(t *testing.T, n int) *report.Snapshot {
	t.Helper()
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{i}
	}
	return must(report.NewSnapshot([]string{"n"}, rows))
}

func localFigure(t *testing.T) report.FigureLocal {
	t.Helper()
	return must(report.NewFigureLocal(&remotetest.Widget{}))
}

// --- HTML inspection ---

func parseHTML(t *testing.T, doc string) *html.Node {
	t.Helper()
	n, err := html.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return n
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	if match(n) {
		out = append(out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findAll(c, match)...)
	}
	return out
}

func elements(n *html.Node, tag string) []*html.Node {
	return findAll(n, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	})
}

func byReportType(n *html.Node, typ string) []*html.Node {
	return findAll(n, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" && attr(n, "data-report-type") == typ
	})
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func innerText(n *html.Node) string {
	var sb strings.Builder
	for _, t := range findAll(n, func(n *html.Node) bool { return n.Type == html.TextNode }) {
		sb.WriteString(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

func texts(nodes []*html.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = innerText(n)
	}
	return out
}
