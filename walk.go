package report

import "fmt"

// HeadingLevel returns the HTML heading level for an item name at structural
// depth, where a report's root item is depth 1. The result is clamped to
// 2..6; level 1 is reserved for report titles.
func HeadingLevel(depth int) int {
	return min(6, max(2, depth+1))
}

// TypeTag returns the structural tag of an item: "text", "table", "figure",
// or "group".
func TypeTag(item Item) (string, error) {
	switch item.(type) {
	case Text:
		return "text", nil
	case TableLocal, TableRemote:
		return "table", nil
	case FigureLocal, FigureRemote:
		return "figure", nil
	case Group:
		return "group", nil
	default:
		return "", fmt.Errorf("%w: unhandled item %T", ErrInternalConsistency, item)
	}
}

// trail tracks the items a walker is inside of. Every push must be matched
// by a pop of the same frame.
type trail struct {
	frames []frame
	seq    int
}

type frame struct {
	id   int
	item Item
}

// depth returns the structural depth the next pushed item will have.
func (t *trail) depth() int { return len(t.frames) + 1 }

func (t *trail) push(item Item) int {
	t.seq++
	t.frames = append(t.frames, frame{id: t.seq, item: item})
	return t.seq
}

func (t *trail) pop(id int) error {
	if len(t.frames) == 0 {
		return fmt.Errorf("%w: pop of frame %d from empty trail", ErrInternalConsistency, id)
	}
	top := t.frames[len(t.frames)-1]
	if top.id != id {
		return fmt.Errorf("%w: popped %T frame %d, expected frame %d", ErrInternalConsistency, top.item, top.id, id)
	}
	t.frames = t.frames[:len(t.frames)-1]
	return nil
}

func (t *trail) empty() bool { return len(t.frames) == 0 }
