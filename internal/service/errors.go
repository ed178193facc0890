// Package service implements the caller-facing operations of the
// marketplace as plain methods returning tagged errors, keeping the
// transaction and index-sync logic out of any transport layer.  The
// services own the dual-store contract: the relational store is ground
// truth, the search index is an advisory ranking oracle, and a
// committed relational write is never failed retroactively because the
// index mirror misbehaved.
package service

import (
    "errors"
    "fmt"
)

// ErrValidation marks malformed or missing caller input.  Nothing has
// been mutated when it is returned.  Wrap it with context:
//
//	fmt.Errorf("%w: title is required", ErrValidation)
var ErrValidation = errors.New("validation failed")

// invalidf builds a wrapped validation error.
func invalidf(format string, args ...any) error {
    return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
