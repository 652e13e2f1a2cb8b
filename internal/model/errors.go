package model

import "errors"

// Sentinel error kinds. Errors raised by ratchet itself wrap exactly one of
// these so Execute can map them to an exit code with errors.Is; errors that
// wrap none of them, such as cobra's own command and argument errors, map to
// exit code 2.
var (
	// ErrUsage marks invalid command-line usage.
	ErrUsage = errors.New("usage error")

	// ErrConfig marks an invalid or unreadable ratchet.toml.
	ErrConfig = errors.New("config error")

	// ErrCounts marks an invalid or unreadable ratchet-counts.toml.
	ErrCounts = errors.New("counts error")

	// ErrRule marks an invalid rule definition.
	ErrRule = errors.New("rule error")

	// ErrParse marks a source file the syntax parser could not handle.
	ErrParse = errors.New("parse error")

	// ErrIO marks a filesystem failure outside the documents above.
	ErrIO = errors.New("io error")

	// ErrBudgetExceeded marks a check run with at least one exceeded region.
	ErrBudgetExceeded = errors.New("budget exceeded")
)
