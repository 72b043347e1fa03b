// Package remotetest provides an in-memory query-execution client for
// exercising remote resolution without a live server.
package remotetest

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/bjaus/report"
)

// Server holds the variables of any number of remote queries, keyed by the
// string form of their target. It implements [report.Dialer].
type Server struct {
	mu      sync.Mutex
	queries map[string]*query
	latency time.Duration
	dialErr error
	open    int
	dials   int
	maxRows []int
}

type query struct {
	tables  map[string]report.Table
	figures map[string]report.Widget
	denied  map[string]bool
}

// NewServer returns an empty Server.
func NewServer() *Server {
	return &Server{queries: make(map[string]*query)}
}

func (s *Server) query(target report.Target) *query {
	key := target.String()
	q, ok := s.queries[key]
	if !ok {
		q = &query{
			tables:  make(map[string]report.Table),
			figures: make(map[string]report.Widget),
			denied:  make(map[string]bool),
		}
		s.queries[key] = q
	}
	return q
}

// AddTable publishes t as a table variable of the query at target.
func (s *Server) AddTable(target report.Target, variable string, t report.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query(target).tables[variable] = t
}

// AddFigure publishes w as a figure variable of the query at target.
func (s *Server) AddFigure(target report.Target, variable string, w report.Widget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query(target).figures[variable] = w
}

// Deny makes every read of variable at target fail with
// [report.ErrAccessDenied].
func (s *Server) Deny(target report.Target, variable string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query(target).denied[variable] = true
}

// SetLatency delays every read by d, or until the read's context is done.
func (s *Server) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

// FailDial makes every subsequent Dial return err.
func (s *Server) FailDial(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialErr = err
}

// Open reports the number of connections not yet closed.
func (s *Server) Open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Dials reports the number of successful Dial calls.
func (s *Server) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

// MaxRows returns the maxRows argument of every table read, in call order.
func (s *Server) MaxRows() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.maxRows)
}

// Dial opens a connection to the query at target. Unknown targets fail with
// [report.ErrRemoteUnavailable].
func (s *Server) Dial(_ context.Context, target report.Target) (report.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dialErr != nil {
		return nil, s.dialErr
	}
	q, ok := s.queries[target.String()]
	if !ok {
		return nil, fmt.Errorf("%w: no query at %s", report.ErrRemoteUnavailable, target)
	}
	s.open++
	s.dials++
	return &conn{s: s, q: q}, nil
}

type conn struct {
	s      *Server
	q      *query
	closed bool
}

func (c *conn) wait(ctx context.Context) error {
	c.s.mu.Lock()
	d := c.s.latency
	c.s.mu.Unlock()
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *conn) Table(ctx context.Context, variable string, columns []string, maxRows int) (report.Table, error) {
	c.s.mu.Lock()
	c.s.maxRows = append(c.s.maxRows, maxRows)
	denied := c.q.denied[variable]
	t, isTable := c.q.tables[variable]
	_, isFigure := c.q.figures[variable]
	c.s.mu.Unlock()

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	switch {
	case denied:
		return nil, fmt.Errorf("%w: read of %q", report.ErrAccessDenied, variable)
	case isFigure:
		return nil, fmt.Errorf("%w: %q is a figure, not a table", report.ErrTypeMismatch, variable)
	case !isTable:
		return nil, fmt.Errorf("unknown variable %q", variable)
	}
	return project(t, columns, maxRows)
}

func (c *conn) Figure(ctx context.Context, variable string) (report.Widget, error) {
	c.s.mu.Lock()
	denied := c.q.denied[variable]
	w, isFigure := c.q.figures[variable]
	_, isTable := c.q.tables[variable]
	c.s.mu.Unlock()

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	switch {
	case denied:
		return nil, fmt.Errorf("%w: read of %q", report.ErrAccessDenied, variable)
	case isTable:
		return nil, fmt.Errorf("%w: %q is a table, not a figure", report.ErrTypeMismatch, variable)
	case !isFigure:
		return nil, fmt.Errorf("unknown variable %q", variable)
	}
	return w, nil
}

func (c *conn) Close() error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.closed {
		return fmt.Errorf("connection already closed")
	}
	c.closed = true
	c.s.open--
	return nil
}

// project copies the first maxRows rows of t restricted to columns.
func project(t report.Table, columns []string, maxRows int) (report.Table, error) {
	all := t.Columns()
	idx := make([]int, 0, len(all))
	if len(columns) == 0 {
		columns = all
		for i := range all {
			idx = append(idx, i)
		}
	} else {
		for _, c := range columns {
			i := slices.Index(all, c)
			if i < 0 {
				return nil, fmt.Errorf("unknown column %q", c)
			}
			idx = append(idx, i)
		}
	}

	n := min(t.Len(), maxRows)
	rows := make([][]any, n)
	for r := range n {
		src := t.Row(r)
		row := make([]any, len(idx))
		for j, i := range idx {
			row[j] = src[i]
		}
		rows[r] = row
	}
	return report.NewSnapshot(columns, rows)
}

// Widget is a remote figure whose data becomes ready after a delay.
type Widget struct {
	// Ready is how long WaitForData blocks before the data arrives.
	Ready time.Duration
	// PNG is written by Save. Nil writes a minimal placeholder.
	PNG []byte

	mu    sync.Mutex
	saves []SaveCall
}

// SaveCall records one rasterization request.
type SaveCall struct {
	Path          string
	Width, Height int
}

// WaitForData blocks for w.Ready or until ctx is done.
func (w *Widget) WaitForData(ctx context.Context) error {
	if w.Ready <= 0 {
		return nil
	}
	t := time.NewTimer(w.Ready)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Save writes the widget's bytes to path.
func (w *Widget) Save(ctx context.Context, path string, width, height int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	w.saves = append(w.saves, SaveCall{Path: path, Width: width, Height: height})
	w.mu.Unlock()
	data := w.PNG
	if data == nil {
		data = PNGMagic
	}
	return os.WriteFile(path, data, 0o644)
}

// Saves returns every Save call made so far.
func (w *Widget) Saves() []SaveCall {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.saves)
}

// PNGMagic is the PNG file signature.
var PNGMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
