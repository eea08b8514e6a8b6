package dualcache

import (
	"github.com/pkg/errors"

	"github.com/skipor/dualcache/internal/util"
)

var (
	// ErrNotFound is returned by Get for an absent key.
	ErrNotFound = errors.New("key not found")
	// ErrResourceExhausted is returned when the arena cannot allocate a new
	// slot. The cache remains usable for existing keys.
	ErrResourceExhausted = errors.New("arena slot space exhausted")
	// ErrPolicyViolation signals a broken internal invariant, for example an
	// index entry pointing at a slot that holds another key. It must never
	// occur under correct operation and is surfaced rather than ignored.
	ErrPolicyViolation = errors.New("cache invariant violation")
	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("cache is closed")
)

func IsNotFound(err error) bool          { return util.Unwrap(err) == ErrNotFound }
func IsResourceExhausted(err error) bool { return util.Unwrap(err) == ErrResourceExhausted }
func IsPolicyViolation(err error) bool   { return util.Unwrap(err) == ErrPolicyViolation }
