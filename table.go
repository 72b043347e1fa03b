package report

import (
	"fmt"
	"slices"
)

// DefaultRowCap is the row cap of a [TableRemote] built without [WithRowCap].
const DefaultRowCap = 100

// Table is an in-memory tabular snapshot. Column names and row data are
// owned by whoever produced it; report code only reads through this view.
type Table interface {
	Columns() []string
	Len() int
	// Row returns the cells of row i, one per column. Nil cells are nulls.
	Row(i int) []any
}

// Snapshot is a Table held entirely in memory.
type Snapshot struct {
	columns []string
	rows    [][]any
}

// NewSnapshot returns a Snapshot over copies of columns and rows. Every row
// must have exactly one cell per column.
func NewSnapshot(columns []string, rows [][]any) (*Snapshot, error) {
	s := &Snapshot{columns: slices.Clone(columns), rows: make([][]any, len(rows))}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrValidation, i, len(row), len(columns))
		}
		s.rows[i] = slices.Clone(row)
	}
	return s, nil
}

// Columns returns a copy of the column names.
func (s *Snapshot) Columns() []string { return slices.Clone(s.columns) }

// Len returns the number of rows.
func (s *Snapshot) Len() int { return len(s.rows) }

// Row returns a copy of row i.
func (s *Snapshot) Row(i int) []any { return slices.Clone(s.rows[i]) }

// Head returns a view of the first n rows of t, keeping row order.
func Head(t Table, n int) Table {
	if n >= t.Len() {
		return t
	}
	return head{Table: t, n: max(n, 0)}
}

type head struct {
	Table
	n int
}

func (h head) Len() int { return h.n }

// --- TableLocal ---

// TableLocal is a table snapshot held in memory.
type TableLocal struct {
	base
	table Table
}

// NewTableLocal returns a TableLocal over t.
func NewTableLocal(t Table) (TableLocal, error) {
	if t == nil {
		return TableLocal{}, fmt.Errorf("%w: local table has no data", ErrValidation)
	}
	return TableLocal{table: t}, nil
}

// Table returns the snapshot.
func (t TableLocal) Table() Table { return t.table }

// Truncated reports whether the snapshot was capped and more rows existed
// remotely.
func (t TableLocal) Truncated() bool {
	v, ok, err := lookup[bool](t.attrs, AttrTruncated)
	return ok && err == nil && v
}

// Source returns the remote descriptor this table was resolved from, if any.
func (t TableLocal) Source() (TableRemote, bool) {
	v, ok, err := lookup[TableRemote](t.attrs, AttrTableSource)
	return v, ok && err == nil
}

// WithName returns a copy of t named name.
func (t TableLocal) WithName(name string) TableLocal { return t.WithAttribute(AttrName, name) }

// WithAttribute returns a copy of t with key set to value.
func (t TableLocal) WithAttribute(key string, value any) TableLocal {
	t.attrs = t.attrs.With(key, value)
	return t
}

func (t TableLocal) withAttributes(a Attributes) Item {
	t.attrs = a
	return t
}

// --- TableRemote ---

// TableRemote references a table variable of a remote query. Resolution
// fetches at most RowCap rows of Columns (all when empty).
type TableRemote struct {
	base
	target   Target
	variable string
	columns  []string
	rowCap   int
}

// TableOption configures a [TableRemote].
type TableOption func(*TableRemote)

// WithColumns restricts the fetched columns. No columns means all columns.
func WithColumns(columns ...string) TableOption {
	return func(t *TableRemote) { t.columns = slices.Clone(columns) }
}

// WithRowCap sets the maximum number of rows to fetch. Default [DefaultRowCap].
func WithRowCap(n int) TableOption {
	return func(t *TableRemote) { t.rowCap = n }
}

// NewTableRemote returns a TableRemote reading variable from target.
func NewTableRemote(target Target, variable string, opts ...TableOption) (TableRemote, error) {
	t := TableRemote{target: target, variable: variable, rowCap: DefaultRowCap}
	for _, opt := range opts {
		opt(&t)
	}
	return t, t.validate()
}

// Target returns the query holding the table.
func (t TableRemote) Target() Target { return t.target }

// Variable returns the table variable name.
func (t TableRemote) Variable() string { return t.variable }

// Columns returns the requested columns. Empty means all.
func (t TableRemote) Columns() []string { return slices.Clone(t.columns) }

// RowCap returns the maximum number of rows kept.
func (t TableRemote) RowCap() int { return t.rowCap }

// WithName returns a copy of t named name.
func (t TableRemote) WithName(name string) TableRemote { return t.WithAttribute(AttrName, name) }

// WithAttribute returns a copy of t with key set to value.
func (t TableRemote) WithAttribute(key string, value any) TableRemote {
	t.attrs = t.attrs.With(key, value)
	return t
}

func (t TableRemote) withAttributes(a Attributes) Item {
	t.attrs = a
	return t
}

func (t TableRemote) validate() error {
	if t.target == nil {
		return fmt.Errorf("%w: remote table has no target", ErrValidation)
	}
	if err := t.target.validate(); err != nil {
		return err
	}
	if t.variable == "" {
		return fmt.Errorf("%w: remote table variable must be non-empty", ErrValidation)
	}
	if t.rowCap <= 0 {
		return fmt.Errorf("%w: row cap must be positive, got %d", ErrValidation, t.rowCap)
	}
	return nil
}
