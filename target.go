package report

import (
	"context"
	"fmt"
	"strconv"
)

// Target names a query living in an external, separately running process.
// It is either a [NameTarget] or a [SerialTarget].
type Target interface {
	fmt.Stringer
	validate() error
}

// NameTarget addresses a remote query by owner and name.
type NameTarget struct {
	owner, name string
}

// TargetByName returns a Target for the query owned by owner and called name.
// Both must be non-empty.
func TargetByName(owner, name string) (NameTarget, error) {
	t := NameTarget{owner: owner, name: name}
	return t, t.validate()
}

// Owner returns the owning user.
func (t NameTarget) Owner() string { return t.owner }

// Name returns the query name.
func (t NameTarget) Name() string { return t.name }

// String returns "owner/name".
func (t NameTarget) String() string { return t.owner + "/" + t.name }

func (t NameTarget) validate() error {
	if t.owner == "" {
		return fmt.Errorf("%w: target owner must be non-empty", ErrValidation)
	}
	if t.name == "" {
		return fmt.Errorf("%w: target name must be non-empty", ErrValidation)
	}
	return nil
}

// SerialTarget addresses a remote query by its numeric serial id.
type SerialTarget struct {
	id int64
}

// TargetBySerial returns a Target for the query with the given serial id.
func TargetBySerial(id int64) SerialTarget { return SerialTarget{id: id} }

// ID returns the query serial.
func (t SerialTarget) ID() int64 { return t.id }

// String returns "#id".
func (t SerialTarget) String() string  { return "#" + strconv.FormatInt(t.id, 10) }
func (t SerialTarget) validate() error { return nil }

// Dialer opens connections to the query-execution client named by a Target.
type Dialer interface {
	Dial(ctx context.Context, target Target) (Conn, error)
}

// Conn is a connection to one remote query. A Conn is used for a single
// resolution and closed afterwards.
type Conn interface {
	// Table fetches at most maxRows rows of the named table variable,
	// restricted to columns (all columns when empty), in remote row order.
	// A server-side ACL rejection is reported with [ErrAccessDenied]; a
	// variable that is not a table with [ErrTypeMismatch].
	Table(ctx context.Context, variable string, columns []string, maxRows int) (Table, error)
	// Figure fetches the named figure widget.
	Figure(ctx context.Context, variable string) (Widget, error)
	Close() error
}
