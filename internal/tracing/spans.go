package tracing

// Span attribute keys for lifecycle tracing.
const (
	AttrCoordinatorID = "coordinator.id"
	AttrCycleID       = "lifecycle.cycle"
	AttrPhase         = "lifecycle.phase"

	AttrComponentType   = "component.type"
	AttrComponentName   = "component.name"
	AttrComponentKind   = "component.kind"
	AttrComponentParent = "component.parent"
	AttrLoadOrder       = "component.load_order"

	AttrSourceID = "source.id"

	AttrPlanModules    = "plan.modules"
	AttrPlanSubmodules = "plan.submodules"
	AttrPlanInactive   = "plan.inactive"
	AttrFailures       = "report.failures"

	AttrErrorMessage = "error.message"
	AttrErrorType    = "error.type"
)

// Span names.
const (
	SpanStart    = "lifecycle.start"
	SpanRescan   = "lifecycle.rescan"
	SpanShutdown = "lifecycle.shutdown"

	SpanDiscover   = "lifecycle.discover"
	SpanConstruct  = "lifecycle.construct"
	SpanInitialize = "lifecycle.initialize"
	SpanCleanup    = "lifecycle.cleanup"

	SpanPrefixCall = "component."
)

// Event names for span events.
const (
	EventScanFailed      = "source.scan_failed"
	EventOrphanDropped   = "submodule.orphan_dropped"
	EventDuplicateType   = "component.duplicate"
	EventAttached        = "component.attached"
	EventIncompatible    = "component.incompatible"
	EventStateTransition = "lifecycle.transition"
)
