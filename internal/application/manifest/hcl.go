package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// ParseOptions configures HCL evaluation.
type ParseOptions struct {
	// Env is exposed to HCL expressions as the `env` object.
	// Nil means the process environment.
	Env map[string]string
}

// hclFile is the top-level structure of an HCL manifest for decoding.
type hclFile struct {
	Modules    []*hclEntry `hcl:"module,block"`
	Submodules []*hclEntry `hcl:"submodule,block"`
}

type hclEntry struct {
	Type      string   `hcl:"type,label"`
	Name      *string  `hcl:"name,optional"`
	Parent    *string  `hcl:"parent,optional"`
	AutoLoad  *bool    `hcl:"auto_load,optional"`
	LoadOrder *int     `hcl:"load_order,optional"`
	Version   *string  `hcl:"version,optional"`
	Labels    []string `hcl:"labels,optional"`
}

func (e *hclEntry) entry() Entry {
	out := Entry{
		Type:     e.Type,
		AutoLoad: e.AutoLoad,
		Labels:   e.Labels,
	}
	if e.Name != nil {
		out.Name = *e.Name
	}
	if e.Parent != nil {
		out.Parent = *e.Parent
	}
	if e.LoadOrder != nil {
		out.LoadOrder = *e.LoadOrder
	}
	if e.Version != nil {
		out.Version = *e.Version
	}
	return out
}

func parseHCL(filename string, data []byte, opts ParseOptions) (*File, error) {
	parser := hclparse.NewParser()
	hf, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root hclFile
	diags = gohcl.DecodeBody(hf.Body, evalContext(opts.Env), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	f := &File{}
	for _, m := range root.Modules {
		f.Modules = append(f.Modules, m.entry())
	}
	for _, s := range root.Submodules {
		f.Submodules = append(f.Submodules, s.entry())
	}
	return f, nil
}

// evalContext exposes env and a few string functions to manifest expressions.
func evalContext(env map[string]string) *hcl.EvalContext {
	if env == nil {
		env = processEnv()
	}
	vals := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vals[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vals),
		},
		Functions: map[string]function.Function{
			"lookup": stdlib.LookupFunc,
			"lower":  stdlib.LowerFunc,
			"upper":  stdlib.UpperFunc,
			"join":   stdlib.JoinFunc,
		},
	}
}

func processEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}
