package lifecycle

import (
	"context"
	"errors"

	"github.com/zjrosen/modkit/internal/domain/component"
	"github.com/zjrosen/modkit/internal/log"
)

// Diagnostics receives every per-component failure and warning the coordinator
// reports. Implementations must not panic.
type Diagnostics interface {
	Report(err error)
}

// DiagnosticsFunc adapts a function to Diagnostics.
type DiagnosticsFunc func(err error)

// Report calls f.
func (f DiagnosticsFunc) Report(err error) { f(err) }

// LogDiagnostics writes reports to the lifecycle log category. Warnings go to
// WARN, everything else to ERROR.
type LogDiagnostics struct{}

// Report logs err.
func (LogDiagnostics) Report(err error) {
	if errors.Is(err, component.ErrDuplicateType) || errors.Is(err, component.ErrOrphanSubmodule) {
		log.Warn(log.CatLifecycle, "Lifecycle warning", "detail", err.Error())
		return
	}
	log.ErrorErr(log.CatLifecycle, "Lifecycle failure", err)
}

// Injector supplies references to an instance after it is attached and before
// it is initialized.
type Injector interface {
	Inject(ctx context.Context, inst *component.Instance) error
}

// InjectorFunc adapts a function to Injector.
type InjectorFunc func(ctx context.Context, inst *component.Instance) error

// Inject calls f.
func (f InjectorFunc) Inject(ctx context.Context, inst *component.Instance) error {
	return f(ctx, inst)
}
