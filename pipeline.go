package report

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Pipeline resolves reports and hands the local copies to a render step,
// holding the configured lock for the whole resolve-and-render section.
type Pipeline struct {
	// Resolver resolves remote items. Nil is allowed when every report is
	// already local; a remote item then fails with ErrRemoteUnavailable.
	Resolver *Resolver
	Locker   Locker
	Policy   LockPolicy
	Logger   *slog.Logger
}

// Run resolves reports and calls render with the results under the lock.
// Reports are passed to render in the order given.
func (p Pipeline) Run(ctx context.Context, reports []Report, render func(context.Context, []Report) error) error {
	log := loggerOr(p.Logger).With("render_id", uuid.NewString())
	resolver := p.Resolver
	if resolver == nil {
		resolver = &Resolver{}
	}
	if resolver.Logger == nil {
		r := *resolver
		r.Logger = log
		resolver = &r
	}
	return Guard(ctx, p.Locker, p.Policy, func(ctx context.Context) error {
		log.Debug("resolving reports", "count", len(reports), "lock", p.Policy.String())
		local, err := resolver.ResolveReports(ctx, reports)
		if err != nil {
			return err
		}
		if err := render(ctx, local); err != nil {
			return err
		}
		log.Debug("rendered reports", "count", len(local))
		return nil
	})
}

var discard = slog.New(slog.DiscardHandler)

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return discard
	}
	return l
}
