// Package component implements the domain layer of the module lifecycle system.
//
// This package follows the same layering as the rest of modkit:
//   - Contains only pure Go code with standard library imports (no external dependencies)
//   - Defines value objects (TypeID, Descriptor) and entities (Instance, Plan, Store)
//   - Implements discovery (dedup by source, auto-load filtering, stable load ordering)
//   - Has no knowledge of manifests, files, logging backends or host runtimes
//
// # Core Types
//
// Descriptor is the static metadata of a discoverable component type: its TypeID,
// declared name, auto-load flag, load order and, for submodules, the TypeID of the
// parent module. Use Builder (NewModule / NewSubmodule) for construction.
//
// Source supplies descriptors. StaticSource is the explicit-registration source used
// for components compiled into the binary; manifest-backed sources live in
// internal/application/manifest.
//
// Registry scans sources exactly once each and produces a Plan: auto-load modules
// and submodules sorted by (LoadOrder, discovery index), plus the known but inactive
// descriptors.
//
// Store owns constructed Instances, indexed by TypeID and by parent TypeID.
//
// # Collaborators
//
// Factory builds a Component for a TypeID (Catalog is the static implementation).
// Hostable, Named, Compatible, Provider and ParentAware are optional capabilities a
// Component may implement; the lifecycle coordinator checks for them.
package component
