// Package vaulterr defines the closed set of error kinds the core reports
// to its callers. Every failure mode maps to one of these kinds, optionally
// carrying a payload (e.g. the current version on a VersionConflict);
// context cancellation and deadline errors map to Cancelled.
package vaulterr

import (
	"context"
	"errors"
	"fmt"
)

// Kind is a closed enum of error categories the core can return.
type Kind string

const (
	PathInvalid     Kind = "PathInvalid"
	TooLarge        Kind = "TooLarge"
	QuotaExceeded   Kind = "QuotaExceeded"
	NotFound        Kind = "NotFound"
	Conflict        Kind = "Conflict"
	VersionConflict Kind = "VersionConflict"
	InvalidQuery    Kind = "InvalidQuery"
	IndexCorrupt    Kind = "IndexCorrupt"
	Cancelled       Kind = "Cancelled"
	Internal        Kind = "Internal"
)

// Error is the value every core operation returns on failure.
type Error struct {
	Kind Kind
	// Path is the note path the error concerns, when relevant.
	Path string
	// CurrentVersion carries the server's current version on VersionConflict.
	CurrentVersion int
	// Msg is a short human-readable detail; it never includes another
	// user's absolute filesystem path.
	Msg string
	// Err is the underlying cause, if any (wrapped, not hidden).
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == VersionConflict:
		return fmt.Sprintf("%s: %s (current version %d)", e.Kind, e.Msg, e.CurrentVersion)
	case e.Path != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Msg)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an *Error of the given kind with a message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// WithPath returns a copy of the error with Path set.
func (e *Error) WithPath(path string) *Error {
	c := *e
	c.Path = path
	return &c
}

// Wrap wraps err as an Internal error unless err is already a *Error, in
// which case it is returned unchanged (no error kind is ever translated
// into another to hide information).
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	if isCancellation(err) {
		return &Error{Kind: Cancelled, Msg: msg, Err: err}
	}
	return &Error{Kind: Internal, Msg: msg, Err: err}
}

// Of reports the Kind of err: Cancelled for a context cancellation or
// deadline error, otherwise Internal if err is not a *Error.
func Of(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if err == nil {
		return ""
	}
	if isCancellation(err) {
		return Cancelled
	}
	return Internal
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// VersionConflictErr constructs the specific VersionConflict error shape
// used by the write protocol.
func VersionConflictErr(path string, current int) *Error {
	return &Error{
		Kind:           VersionConflict,
		Path:           path,
		CurrentVersion: current,
		Msg:            "if_version does not match current version",
	}
}
