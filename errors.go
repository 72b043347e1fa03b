package report

import "errors"

// Sentinel errors for programmatic error handling.
var (
	// ErrValidation reports a malformed item, target, size, or report.
	ErrValidation = errors.New("validation failed")
	// ErrTypeMismatch reports a value whose runtime type is not the one requested.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrNoAttribute reports a lookup of an attribute that is not present.
	ErrNoAttribute = errors.New("attribute not present")
	// ErrRemoteUnavailable reports a remote target that could not be reached,
	// located, or read within the timeout.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrAccessDenied reports a remote read rejected by the server-side ACL check.
	ErrAccessDenied = errors.New("access denied")
	// ErrRenderIO reports a figure rasterization, file write, or delivery failure.
	ErrRenderIO = errors.New("render i/o")
	// ErrInternalConsistency reports a traversal defect, such as an unbalanced
	// item stack or an unhandled item variant.
	ErrInternalConsistency = errors.New("internal consistency")
)
