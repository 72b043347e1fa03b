package report

import (
	"context"
	"fmt"
)

// Chart is an in-memory figure owned by a charting engine.
type Chart interface {
	// Save rasterizes the chart to path. Zero width and height mean the
	// chart's intrinsic size.
	Save(ctx context.Context, path string, width, height int) error
}

// Widget is a figure fetched from a remote query. Its data may still be in
// flight when it is returned.
type Widget interface {
	Chart
	// WaitForData blocks until the figure has data or ctx is done.
	WaitForData(ctx context.Context) error
}

// Size is a pixel size for a figure.
type Size struct {
	Width  int
	Height int
}

// NewSize returns a Size. Both dimensions must be positive.
func NewSize(width, height int) (Size, error) {
	s := Size{Width: width, Height: height}
	return s, s.validate()
}

func (s Size) validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: size must be positive, got %dx%d", ErrValidation, s.Width, s.Height)
	}
	return nil
}

func sizeOf(item Item) (Size, bool) {
	s, ok, err := lookup[Size](item.Attributes(), AttrSize)
	return s, ok && err == nil
}

// --- FigureLocal ---

// FigureLocal is a figure held by the local charting engine.
type FigureLocal struct {
	base
	chart Chart
}

// NewFigureLocal returns a FigureLocal over c.
func NewFigureLocal(c Chart) (FigureLocal, error) {
	if c == nil {
		return FigureLocal{}, fmt.Errorf("%w: local figure has no chart", ErrValidation)
	}
	return FigureLocal{chart: c}, nil
}

// Chart returns the chart handle.
func (f FigureLocal) Chart() Chart { return f.chart }

// Size returns the size attribute, if present.
func (f FigureLocal) Size() (Size, bool) { return sizeOf(f) }

// Source returns the remote descriptor this figure was resolved from, if any.
func (f FigureLocal) Source() (FigureRemote, bool) {
	v, ok, err := lookup[FigureRemote](f.attrs, AttrFigureSource)
	return v, ok && err == nil
}

// WithSize returns a copy rendered at width x height pixels.
func (f FigureLocal) WithSize(width, height int) (FigureLocal, error) {
	s, err := NewSize(width, height)
	if err != nil {
		return f, err
	}
	return f.WithAttribute(AttrSize, s), nil
}

// WithName returns a copy of f named name.
func (f FigureLocal) WithName(name string) FigureLocal { return f.WithAttribute(AttrName, name) }

// WithAttribute returns a copy of f with key set to value.
func (f FigureLocal) WithAttribute(key string, value any) FigureLocal {
	f.attrs = f.attrs.With(key, value)
	return f
}

func (f FigureLocal) withAttributes(a Attributes) Item {
	f.attrs = a
	return f
}

// --- FigureRemote ---

// FigureRemote references a figure widget variable of a remote query.
type FigureRemote struct {
	base
	target   Target
	variable string
}

// NewFigureRemote returns a FigureRemote reading variable from target.
func NewFigureRemote(target Target, variable string) (FigureRemote, error) {
	f := FigureRemote{target: target, variable: variable}
	return f, f.validate()
}

// Target returns the query holding the widget.
func (f FigureRemote) Target() Target { return f.target }

// Variable returns the widget variable name.
func (f FigureRemote) Variable() string { return f.variable }

// Size returns the size attribute, if present.
func (f FigureRemote) Size() (Size, bool) { return sizeOf(f) }

// WithSize returns a copy rendered at width x height pixels once resolved.
func (f FigureRemote) WithSize(width, height int) (FigureRemote, error) {
	s, err := NewSize(width, height)
	if err != nil {
		return f, err
	}
	return f.WithAttribute(AttrSize, s), nil
}

// WithName returns a copy of f named name.
func (f FigureRemote) WithName(name string) FigureRemote { return f.WithAttribute(AttrName, name) }

// WithAttribute returns a copy of f with key set to value.
func (f FigureRemote) WithAttribute(key string, value any) FigureRemote {
	f.attrs = f.attrs.With(key, value)
	return f
}

func (f FigureRemote) withAttributes(a Attributes) Item {
	f.attrs = a
	return f
}

func (f FigureRemote) validate() error {
	if f.target == nil {
		return fmt.Errorf("%w: remote figure has no target", ErrValidation)
	}
	if err := f.target.validate(); err != nil {
		return err
	}
	if f.variable == "" {
		return fmt.Errorf("%w: remote figure variable must be non-empty", ErrValidation)
	}
	return nil
}
