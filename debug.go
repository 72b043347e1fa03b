package report

import (
	"fmt"
	"strconv"
	"strings"
)

// Debug returns a script-like expression describing the item tree, for
// example named("Totals", [table(pq("ops", "daily"), "totals"), "done"]).
// It performs no I/O.
func Debug(item Item) string {
	var out string
	switch it := item.(type) {
	case Text:
		out = strconv.Quote(it.value)
	case TableLocal:
		out = "<table>"
	case TableRemote:
		out = fmt.Sprintf("table(%s, %s)", debugTarget(it.target), strconv.Quote(it.variable))
	case FigureLocal:
		out = "<plot>"
		if s, ok := it.Size(); ok {
			out = fmt.Sprintf("figure(<plot>).withSize(%d, %d)", s.Width, s.Height)
		}
	case FigureRemote:
		out = fmt.Sprintf("figure(%s, %s)", debugTarget(it.target), strconv.Quote(it.variable))
		if s, ok := it.Size(); ok {
			out += fmt.Sprintf(".withSize(%d, %d)", s.Width, s.Height)
		}
	case Group:
		parts := make([]string, len(it.items))
		for i, child := range it.items {
			parts[i] = Debug(child)
		}
		out = "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("<%T>", item)
	}
	if name, ok := item.Name(); ok {
		return fmt.Sprintf("named(%s, %s)", strconv.Quote(name), out)
	}
	return out
}

// Debug returns report(<title>, <item>) in the form of [Debug].
func (r Report) Debug() string {
	return fmt.Sprintf("report(%s, %s)", strconv.Quote(r.title), Debug(r.item))
}

func debugTarget(t Target) string {
	switch tt := t.(type) {
	case NameTarget:
		return fmt.Sprintf("pq(%s, %s)", strconv.Quote(tt.owner), strconv.Quote(tt.name))
	case SerialTarget:
		return fmt.Sprintf("pq(%d)", tt.id)
	default:
		return fmt.Sprintf("<%T>", t)
	}
}
