package presentation

import (
	"github.com/zjrosen/modkit/internal/domain/component"
	"github.com/zjrosen/modkit/internal/lifecycle"
)

// DescriptorDTO represents a component declaration for presentation
type DescriptorDTO struct {
	Type      string   `json:"type" yaml:"type"`
	Name      string   `json:"name" yaml:"name"`
	Kind      string   `json:"kind" yaml:"kind"`
	Parent    string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	AutoLoad  bool     `json:"auto_load" yaml:"auto_load"`
	LoadOrder int      `json:"load_order" yaml:"load_order"`
	Version   string   `json:"version,omitempty" yaml:"version,omitempty"`
	Labels    []string `json:"labels" yaml:"labels"`
}

// PlanDTO represents a construction plan grouped by role
type PlanDTO struct {
	Modules    []DescriptorDTO `json:"modules" yaml:"modules"`
	Submodules []DescriptorDTO `json:"submodules" yaml:"submodules"`
	Inactive   []DescriptorDTO `json:"inactive" yaml:"inactive"`
}

// InstanceDTO represents a live component instance
type InstanceDTO struct {
	Type        string        `json:"type" yaml:"type"`
	Name        string        `json:"name" yaml:"name"`
	Kind        string        `json:"kind" yaml:"kind"`
	Initialized bool          `json:"initialized" yaml:"initialized"`
	Submodules  []InstanceDTO `json:"submodules,omitempty" yaml:"submodules,omitempty"`
}

// ReportDTO represents the outcome of one lifecycle phase
type ReportDTO struct {
	CycleID     string   `json:"cycle_id,omitempty" yaml:"cycle_id,omitempty"`
	Constructed []string `json:"constructed" yaml:"constructed"`
	Initialized []string `json:"initialized" yaml:"initialized"`
	CleanedUp   []string `json:"cleaned_up" yaml:"cleaned_up"`
	Failures    []string `json:"failures" yaml:"failures"`
	Warnings    []string `json:"warnings" yaml:"warnings"`
}

// FromDescriptor converts a descriptor to a DTO.
func FromDescriptor(d component.Descriptor) DescriptorDTO {
	labels := d.Labels()
	if labels == nil {
		labels = []string{}
	}
	return DescriptorDTO{
		Type:      d.TypeID().String(),
		Name:      d.Name(),
		Kind:      d.Kind().String(),
		Parent:    d.Parent().String(),
		AutoLoad:  d.AutoLoad(),
		LoadOrder: d.LoadOrder(),
		Version:   d.Version(),
		Labels:    labels,
	}
}

// FromDescriptors converts descriptors to DTOs, keeping order.
func FromDescriptors(descs []component.Descriptor) []DescriptorDTO {
	dtos := make([]DescriptorDTO, 0, len(descs))
	for _, d := range descs {
		dtos = append(dtos, FromDescriptor(d))
	}
	return dtos
}

// FromPlan converts a plan to a DTO.
func FromPlan(p *component.Plan) PlanDTO {
	return PlanDTO{
		Modules:    FromDescriptors(p.Modules()),
		Submodules: FromDescriptors(p.Submodules()),
		Inactive:   FromDescriptors(p.Inactive()),
	}
}

// FromStore converts the stored modules to DTOs with their submodules nested.
func FromStore(s *component.Store) []InstanceDTO {
	modules := s.Modules()
	dtos := make([]InstanceDTO, 0, len(modules))
	for _, m := range modules {
		dto := fromInstance(m)
		for _, sub := range s.ChildrenOf(m.TypeID()) {
			dto.Submodules = append(dto.Submodules, fromInstance(sub))
		}
		dtos = append(dtos, dto)
	}
	return dtos
}

func fromInstance(inst *component.Instance) InstanceDTO {
	return InstanceDTO{
		Type:        inst.TypeID().String(),
		Name:        inst.Name(),
		Kind:        inst.Kind().String(),
		Initialized: inst.Initialized(),
	}
}

// FromReport converts a lifecycle report to a DTO. Errors become their messages.
func FromReport(r *lifecycle.Report) ReportDTO {
	if r == nil {
		r = &lifecycle.Report{}
	}
	return ReportDTO{
		CycleID:     r.CycleID,
		Constructed: typeStrings(r.Constructed),
		Initialized: typeStrings(r.Initialized),
		CleanedUp:   typeStrings(r.CleanedUp),
		Failures:    errorStrings(r.Failures),
		Warnings:    errorStrings(r.Warnings),
	}
}

func typeStrings(ids []component.TypeID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func errorStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}
