package lifecycle

import (
	"errors"

	"github.com/zjrosen/modkit/internal/domain/component"
)

// Report is the outcome of one Start, Rescan or Shutdown call. Failures never
// abort a phase; they are collected here instead.
type Report struct {
	CycleID string

	Constructed []component.TypeID
	Initialized []component.TypeID
	CleanedUp   []component.TypeID

	// Failures holds ScanFailure, ConstructionError, OrphanSubmoduleError,
	// AttachError, InjectionError, IncompatibleError, InitializationError and
	// CleanupError values in the order they occurred.
	Failures []error
	// Warnings holds DuplicateRegistrationWarning values.
	Warnings []error
}

// OK reports whether the phase finished without failures. Warnings do not count.
func (r *Report) OK() bool {
	return r == nil || len(r.Failures) == 0
}

// Err joins every failure, or returns nil.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	return errors.Join(r.Failures...)
}

// FailuresOf returns the failures matching target via errors.Is.
func (r *Report) FailuresOf(target error) []error {
	if r == nil {
		return nil
	}
	var out []error
	for _, err := range r.Failures {
		if errors.Is(err, target) {
			out = append(out, err)
		}
	}
	return out
}

func (r *Report) add(err error) {
	if errors.Is(err, component.ErrDuplicateType) {
		r.Warnings = append(r.Warnings, err)
		return
	}
	r.Failures = append(r.Failures, err)
}
