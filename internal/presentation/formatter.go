package presentation

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Encoding selects the Formatter output syntax.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingYAML Encoding = "yaml"
)

// ParseEncoding accepts "json" and "yaml". The empty string means JSON.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(s); e {
	case "":
		return EncodingJSON, nil
	case EncodingJSON, EncodingYAML:
		return e, nil
	default:
		return "", fmt.Errorf("unknown encoding %q (want json or yaml)", s)
	}
}

// Formatter writes DTOs as indented JSON or YAML documents.
type Formatter struct {
	w   io.Writer
	enc Encoding
}

// NewFormatter returns a JSON formatter.
func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w, enc: EncodingJSON}
}

// NewFormatterFor returns a formatter using enc.
func NewFormatterFor(w io.Writer, enc Encoding) *Formatter {
	return &Formatter{w: w, enc: enc}
}

func (f *Formatter) FormatDescriptors(descs []DescriptorDTO) error { return f.write(descs) }

func (f *Formatter) FormatPlan(plan PlanDTO) error { return f.write(plan) }

// FormatInstances writes the live modules with their submodules nested.
func (f *Formatter) FormatInstances(instances []InstanceDTO) error { return f.write(instances) }

func (f *Formatter) FormatReport(report ReportDTO) error { return f.write(report) }

func (f *Formatter) write(v any) error {
	if f.enc == EncodingYAML {
		enc := yaml.NewEncoder(f.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
