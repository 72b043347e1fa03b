// Package report builds structured reports out of text, tables, figures, and
// nested groups, resolves items that reference live remote queries into
// local snapshots, and renders the result for several targets.
//
// # Items
//
// An [Item] is one of a closed set of immutable variants:
//
//   - [Text] - a non-empty string, optionally with a markdown attribute
//   - [TableLocal] - an in-memory [Table] snapshot
//   - [TableRemote] - a table variable of a remote query, capped to a row count
//   - [FigureLocal] - a [Chart] held by the local charting engine
//   - [FigureRemote] - a figure widget variable of a remote query
//   - [Group] - an ordered list of child items
//
// Every item carries an [Attributes] store. The With methods return a copy:
//
//	t, _ := report.NewText("all systems nominal")
//	t = t.WithName("Status").WithMarkdown("*all systems nominal*")
//
// Typed attribute reads use [Get] and [GetOr], which fail with
// [ErrTypeMismatch] when the stored value has a different type.
//
// # Reports
//
// A [Report] wraps one root item with a title and a timestamp:
//
//	rep, err := report.NewReport("Daily", group)
//
// # Resolution
//
// A [Resolver] replaces every [TableRemote] and [FigureRemote] with its local
// equivalent by dialing the query-execution client through a [Dialer]. Each
// fetch is bounded by the resolver timeout. Tables are fetched with one row
// more than their cap so that truncation is detected without a count query;
// the local table records it in the "truncated" attribute.
//
// # Locking
//
// Resolution and rendering read live state that background writers may be
// changing. A [Pipeline] runs both under a caller-chosen [LockPolicy] against
// an injected [Locker], releasing the lock on every exit path.
//
// # Rendering
//
// Renderers walk a resolved tree in order:
//
//   - [HTMLRenderer] - one HTML document for a sequence of reports; figures
//     are rasterized through a [FigureSink]
//   - [HTMLFile] - a standalone HTML file with numbered sibling images
//   - [ChatRenderer] - one chat message per item, figures as uploads
//   - [Debug] - a script-like debug string of a tree, with no I/O
//
// Item names become headings whose level follows [HeadingLevel].
//
// # Errors
//
// The package exports sentinel errors for programmatic handling:
//
//   - [ErrValidation] - malformed item, target, size, or report
//   - [ErrTypeMismatch] - attribute or remote variable of the wrong type
//   - [ErrNoAttribute] - attribute lookup with no value present
//   - [ErrRemoteUnavailable] - remote target unreachable or too slow
//   - [ErrAccessDenied] - remote read rejected by the server
//   - [ErrRenderIO] - figure, file, or delivery failure
//   - [ErrInternalConsistency] - traversal defect
package report
