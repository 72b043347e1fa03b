package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTimeout bounds each remote fetch when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Resolver replaces remote items with local snapshots. Text and local items
// are returned as-is; groups are rebuilt with resolved children.
type Resolver struct {
	Dialer Dialer
	// Timeout bounds connecting to and reading from one remote target.
	// Zero means DefaultTimeout.
	Timeout time.Duration
	Logger  *slog.Logger
}

func (r *Resolver) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

func (r *Resolver) logger() *slog.Logger { return loggerOr(r.Logger) }

// ResolveReports resolves every report in order. The first failure aborts
// and no reports are returned.
func (r *Resolver) ResolveReports(ctx context.Context, reports []Report) ([]Report, error) {
	out := make([]Report, 0, len(reports))
	for _, rep := range reports {
		local, err := r.ResolveReport(ctx, rep)
		if err != nil {
			return nil, err
		}
		out = append(out, local)
	}
	return out, nil
}

// ResolveReport returns a copy of rep whose item tree holds no remote items.
func (r *Resolver) ResolveReport(ctx context.Context, rep Report) (Report, error) {
	item, err := r.Resolve(ctx, rep.Item())
	if err != nil {
		return Report{}, fmt.Errorf("resolve report %q: %w", rep.Title(), err)
	}
	return rep.withItem(item), nil
}

// Resolve returns item with every remote descendant replaced by its local
// equivalent.
func (r *Resolver) Resolve(ctx context.Context, item Item) (Item, error) {
	switch it := item.(type) {
	case Text, TableLocal, FigureLocal:
		return item, nil
	case TableRemote:
		return r.resolveTable(ctx, it)
	case FigureRemote:
		return r.resolveFigure(ctx, it)
	case Group:
		children := make([]Item, len(it.items))
		for i, child := range it.items {
			local, err := r.Resolve(ctx, child)
			if err != nil {
				return nil, err
			}
			children[i] = local
		}
		it.items = children
		return it, nil
	default:
		return nil, fmt.Errorf("%w: unhandled item %T", ErrInternalConsistency, item)
	}
}

func (r *Resolver) resolveTable(ctx context.Context, t TableRemote) (Item, error) {
	what := fmt.Sprintf("table %q on %v", t.variable, t.target)
	return r.fetch(ctx, t.target, what, func(ctx context.Context, conn Conn) (Item, error) {
		// One extra row tells us whether the remote table is larger than the cap.
		data, err := conn.Table(ctx, t.variable, t.columns, t.rowCap+1)
		if err != nil {
			return nil, err
		}
		truncated := data.Len() > t.rowCap
		local := TableLocal{base: t.base, table: Head(data, t.rowCap)}
		local.attrs = local.attrs.With(AttrTableSource, t).With(AttrTruncated, truncated)
		return local, nil
	})
}

func (r *Resolver) resolveFigure(ctx context.Context, f FigureRemote) (Item, error) {
	what := fmt.Sprintf("figure %q on %v", f.variable, f.target)
	return r.fetch(ctx, f.target, what, func(ctx context.Context, conn Conn) (Item, error) {
		w, err := conn.Figure(ctx, f.variable)
		if err != nil {
			return nil, err
		}
		if err := w.WaitForData(ctx); err != nil {
			return nil, err
		}
		local := FigureLocal{base: f.base, chart: w}
		local.attrs = local.attrs.With(AttrFigureSource, f)
		return local, nil
	})
}

type fetchResult struct {
	item Item
	err  error
}

// fetch runs one connect-read-close cycle under the resolver timeout. The
// timeout is enforced here even when the client ignores ctx; a fetch that
// overruns is abandoned and its connection closed once it returns. On
// success the connection is closed before the result is delivered.
func (r *Resolver) fetch(ctx context.Context, target Target, what string, read func(context.Context, Conn) (Item, error)) (Item, error) {
	if r.Dialer == nil {
		return nil, fmt.Errorf("%w: %s: no dialer configured", ErrRemoteUnavailable, what)
	}
	log := r.logger().With("target", target.String(), "what", what)
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	start := time.Now()
	done := make(chan fetchResult, 1)
	go func() {
		conn, err := r.Dialer.Dial(ctx, target)
		if err != nil {
			done <- fetchResult{err: err}
			return
		}
		item, err := read(ctx, conn)
		if cerr := conn.Close(); cerr != nil {
			log.Warn("close remote connection", "error", cerr)
		}
		done <- fetchResult{item: item, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			err := classify(what, res.err)
			log.Warn("remote fetch failed", "error", err)
			return nil, err
		}
		log.Debug("remote fetch done", "elapsed", time.Since(start))
		return res.item, nil
	case <-ctx.Done():
		err := fmt.Errorf("%w: %s: %w", ErrRemoteUnavailable, what, ctx.Err())
		log.Warn("remote fetch timed out", "error", err)
		return nil, err
	}
}

// classify maps a client error onto the resolution taxonomy. Access denials
// and type mismatches keep their identity; anything else is unavailability.
func classify(what string, err error) error {
	switch {
	case errors.Is(err, ErrAccessDenied), errors.Is(err, ErrTypeMismatch), errors.Is(err, ErrRemoteUnavailable):
		return fmt.Errorf("%s: %w", what, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrRemoteUnavailable, what, err)
	}
}
