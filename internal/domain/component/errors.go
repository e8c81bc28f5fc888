package component

import (
	"errors"
	"fmt"
)

// Lifecycle failure sentinels. Each typed failure below unwraps to one of these
// so callers can test with errors.Is without knowing the concrete type.
var (
	ErrScanFailed           = errors.New("descriptor source scan failed")
	ErrConstructionFailed   = errors.New("component construction failed")
	ErrOrphanSubmodule      = errors.New("submodule parent not registered")
	ErrInitializationFailed = errors.New("component initialize failed")
	ErrCleanupFailed        = errors.New("component cleanup failed")
	ErrDuplicateType        = errors.New("duplicate registration for type")
	ErrAttachFailed         = errors.New("component attach failed")
	ErrInjectionFailed      = errors.New("component injection failed")
	ErrIncompatible         = errors.New("component is not compatible")
)

// ScanFailure reports a source that could not enumerate its descriptors.
type ScanFailure struct {
	SourceID string
	Err      error
}

func (e *ScanFailure) Error() string {
	return fmt.Sprintf("scan source %s: %v", e.SourceID, e.Err)
}

func (e *ScanFailure) Unwrap() []error { return []error{ErrScanFailed, e.Err} }

// ConstructionError reports a descriptor the Factory could not instantiate.
type ConstructionError struct {
	TypeID TypeID
	Kind   Kind
	Err    error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construct %s %s: %v", e.Kind, e.TypeID, e.Err)
}

func (e *ConstructionError) Unwrap() []error { return []error{ErrConstructionFailed, e.Err} }

// OrphanSubmoduleError reports a submodule dropped because its parent module
// was never registered.
type OrphanSubmoduleError struct {
	TypeID TypeID
	Parent TypeID
}

func (e *OrphanSubmoduleError) Error() string {
	return fmt.Sprintf("submodule %s: parent %s not registered", e.TypeID, e.Parent)
}

func (e *OrphanSubmoduleError) Unwrap() error { return ErrOrphanSubmodule }

// InitializationError reports a failed (or panicking) Initialize call.
type InitializationError struct {
	TypeID TypeID
	Name   string
	Err    error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialize %s (%s): %v", e.TypeID, e.Name, e.Err)
}

func (e *InitializationError) Unwrap() []error { return []error{ErrInitializationFailed, e.Err} }

// CleanupError reports a failed (or panicking) Cleanup call.
type CleanupError struct {
	TypeID TypeID
	Name   string
	Err    error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup %s (%s): %v", e.TypeID, e.Name, e.Err)
}

func (e *CleanupError) Unwrap() []error { return []error{ErrCleanupFailed, e.Err} }

// DuplicateRegistrationWarning reports a TypeID stored twice in one pass.
// The later instance replaced the earlier one.
type DuplicateRegistrationWarning struct {
	TypeID   TypeID
	Replaced string
	Winner   string
}

func (e *DuplicateRegistrationWarning) Error() string {
	return fmt.Sprintf("duplicate registration for %s: %q replaced by %q", e.TypeID, e.Replaced, e.Winner)
}

func (e *DuplicateRegistrationWarning) Unwrap() error { return ErrDuplicateType }

// AttachError reports a Hostable component that refused its parent handle.
type AttachError struct {
	TypeID TypeID
	Err    error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("attach %s: %v", e.TypeID, e.Err)
}

func (e *AttachError) Unwrap() []error { return []error{ErrAttachFailed, e.Err} }

// InjectionError reports a failed reference injection.
type InjectionError struct {
	TypeID TypeID
	Err    error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("inject %s: %v", e.TypeID, e.Err)
}

func (e *InjectionError) Unwrap() []error { return []error{ErrInjectionFailed, e.Err} }

// IncompatibleError reports a component whose compatibility check failed.
// Its Initialize is never called.
type IncompatibleError struct {
	TypeID TypeID
	Err    error
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("%s is not compatible: %v", e.TypeID, e.Err)
}

func (e *IncompatibleError) Unwrap() []error { return []error{ErrIncompatible, e.Err} }

// PanicError wraps a value recovered from component code.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recovered converts a recovered panic value into an error. It returns nil
// when v is nil.
func Recovered(v any) error {
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return &PanicError{Value: v}
}
