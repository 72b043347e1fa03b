package report

import (
	"fmt"
	"slices"
)

// Item is one node of a report tree. The set of variants is closed: [Text],
// [TableLocal], [TableRemote], [FigureLocal], [FigureRemote], and [Group].
// Every variant is an immutable value; the With methods return modified
// copies.
type Item interface {
	// Attributes returns the item's attribute store.
	Attributes() Attributes
	// Name returns the name attribute, if present and a string.
	Name() (string, bool)

	withAttributes(Attributes) Item
}

type base struct {
	attrs Attributes
}

// Attributes returns the item's attributes.
func (b base) Attributes() Attributes { return b.attrs }

// Name returns the name attribute, if set to a string.
func (b base) Name() (string, bool) {
	name, ok, err := lookup[string](b.attrs, AttrName)
	return name, ok && err == nil
}

// Named returns a copy of item carrying name.
func Named(name string, item Item) Item {
	return WithAttribute(item, AttrName, name)
}

// WithAttribute returns a copy of item with key set to value, preserving the
// item's variant.
func WithAttribute(item Item, key string, value any) Item {
	return item.withAttributes(item.Attributes().With(key, value))
}

// nameOf is Name with a wrongly typed attribute reported as an error.
func nameOf(item Item) (string, bool, error) {
	return lookup[string](item.Attributes(), AttrName)
}

// --- Text ---

// Text is a non-empty string payload, optionally carrying a markdown
// rendering of the same content for targets that support it.
type Text struct {
	base
	value string
}

// NewText returns a Text item. The value must not be empty.
func NewText(value string) (Text, error) {
	if value == "" {
		return Text{}, fmt.Errorf("%w: text value must be non-empty", ErrValidation)
	}
	return Text{value: value}, nil
}

// Value returns the plain text payload.
func (t Text) Value() string { return t.value }

// Markdown returns the markdown attribute, if present.
func (t Text) Markdown() (string, bool) {
	md, ok, err := lookup[string](t.attrs, AttrMarkdown)
	return md, ok && err == nil
}

// WithName returns a copy of t named name.
func (t Text) WithName(name string) Text { return t.WithAttribute(AttrName, name) }

// WithMarkdown returns a copy of t that renders md where markdown is supported.
func (t Text) WithMarkdown(md string) Text { return t.WithAttribute(AttrMarkdown, md) }

// WithAttribute returns a copy of t with key set to value.
func (t Text) WithAttribute(key string, value any) Text {
	t.attrs = t.attrs.With(key, value)
	return t
}

func (t Text) withAttributes(a Attributes) Item {
	t.attrs = a
	return t
}

// --- Group ---

// Group is an ordered sequence of child items. Order is rendering order.
type Group struct {
	base
	items []Item
}

// NewGroup returns a Group over a snapshot of items. Nil children are
// rejected.
func NewGroup(items ...Item) (Group, error) {
	for i, it := range items {
		if it == nil {
			return Group{}, fmt.Errorf("%w: group item %d is nil", ErrValidation, i)
		}
	}
	return Group{items: slices.Clone(items)}, nil
}

// Texts returns a Group of Text items, one per value.
func Texts(values ...string) (Group, error) {
	items := make([]Item, 0, len(values))
	for _, v := range values {
		t, err := NewText(v)
		if err != nil {
			return Group{}, err
		}
		items = append(items, t)
	}
	return Group{items: items}, nil
}

// Items returns the children in order. The returned slice is a copy.
func (g Group) Items() []Item { return slices.Clone(g.items) }

// Len returns the number of children.
func (g Group) Len() int { return len(g.items) }

// WithName returns a copy of g named name.
func (g Group) WithName(name string) Group { return g.WithAttribute(AttrName, name) }

// WithAttribute returns a copy of g with key set to value.
func (g Group) WithAttribute(key string, value any) Group {
	g.attrs = g.attrs.With(key, value)
	return g
}

func (g Group) withAttributes(a Attributes) Item {
	g.attrs = a
	return g
}

// validate checks invariants that zero values and raw attribute writes can
// bypass: non-empty text, well-formed sizes, and complete remote references.
func validate(item Item) error {
	if item == nil {
		return fmt.Errorf("%w: nil item", ErrValidation)
	}
	if _, _, err := nameOf(item); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if s, ok, err := lookup[Size](item.Attributes(), AttrSize); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	} else if ok {
		if err := s.validate(); err != nil {
			return err
		}
	}
	switch it := item.(type) {
	case Text:
		if it.value == "" {
			return fmt.Errorf("%w: text value must be non-empty", ErrValidation)
		}
	case TableLocal:
		if it.table == nil {
			return fmt.Errorf("%w: local table has no data", ErrValidation)
		}
	case TableRemote:
		return it.validate()
	case FigureLocal:
		if it.chart == nil {
			return fmt.Errorf("%w: local figure has no chart", ErrValidation)
		}
	case FigureRemote:
		return it.validate()
	case Group:
		for _, child := range it.items {
			if err := validate(child); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unhandled item %T", ErrInternalConsistency, item)
	}
	return nil
}
