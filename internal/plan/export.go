package plan

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Report is a reviewable summary of a plan: how every field and variant
// will be represented in the mirror.
type Report struct {
	Structs []StructReport `yaml:"structs,omitempty"`
	Enums   []EnumReport   `yaml:"enums,omitempty"`
	Empty   []string       `yaml:"empty,omitempty"`
	Manual  []string       `yaml:"manual,omitempty"`
	Opaque  []string       `yaml:"opaque,omitempty"`
}

// StructReport summarizes one struct mirror.
type StructReport struct {
	Name        string        `yaml:"name"`
	Passthrough string        `yaml:"passthrough,omitempty"`
	Layout      string        `yaml:"layout,omitempty"`
	Fields      []FieldReport `yaml:"fields"`
}

// FieldReport summarizes one field.
type FieldReport struct {
	Name    string `yaml:"name"`
	JSON    string `yaml:"json,omitempty"`
	Mirror  string `yaml:"mirror,omitempty"`
	Recipe  string `yaml:"recipe"`
	Flatten bool   `yaml:"flatten,omitempty"`
	Omit    string `yaml:"omit,omitempty"`
}

// EnumReport summarizes one enum mirror.
type EnumReport struct {
	Name     string          `yaml:"name"`
	CatchAll bool            `yaml:"catch_all,omitempty"`
	Default  string          `yaml:"default,omitempty"`
	Variants []VariantReport `yaml:"variants"`
}

// VariantReport summarizes one variant.
type VariantReport struct {
	Name    string `yaml:"name"`
	JSON    string `yaml:"json"`
	Kind    int    `yaml:"kind"`
	Payload string `yaml:"payload,omitempty"`
}

// GenerateReport creates a report from a plan.
func GenerateReport(p *Plan) *Report {
	r := &Report{
		Empty:  p.Empty,
		Manual: p.Manual,
		Opaque: p.Opaque,
	}

	for _, sp := range p.Structs {
		sr := StructReport{Name: sp.Name}
		if sp.Passthrough != nil {
			sr.Passthrough = sp.Passthrough.Name
		}

		if sp.Layout != nil {
			sr.Layout = sp.Layout.Field + "/" + sp.Layout.Terminator
		}

		for _, f := range sp.Fields {
			fr := FieldReport{
				Name:    f.Name,
				Recipe:  f.Recipe.String(),
				Flatten: f.Flatten,
				Omit:    string(f.Omit),
			}

			if f.Emitted() {
				fr.JSON = f.JSONName
				fr.Mirror = f.Recipe.Mirror.String()
			}

			sr.Fields = append(sr.Fields, fr)
		}

		r.Structs = append(r.Structs, sr)
	}

	for _, ep := range p.Enums {
		er := EnumReport{Name: ep.Name, CatchAll: ep.CatchAll, Default: ep.Default}

		for _, v := range ep.Variants {
			vr := VariantReport{Name: v.Name, JSON: v.JSONName, Kind: v.Kind}
			if v.Payload != nil {
				vr.Payload = v.Payload.String()
			}

			er.Variants = append(er.Variants, vr)
		}

		r.Enums = append(r.Enums, er)
	}

	return r
}

// ExportYAML renders the plan report as YAML.
func ExportYAML(p *Plan) ([]byte, error) {
	return yaml.Marshal(GenerateReport(p))
}

// FormatReport formats a report as human-readable text.
func FormatReport(report *Report) string {
	var sb strings.Builder

	for _, s := range report.Structs {
		fmt.Fprintf(&sb, "\n=== struct %s ===\n", s.Name)

		if s.Passthrough != "" {
			fmt.Fprintf(&sb, "passthrough: %s\n", s.Passthrough)
		}

		if s.Layout != "" {
			fmt.Fprintf(&sb, "layout: %s\n", s.Layout)
		}

		for _, f := range s.Fields {
			if f.Mirror == "" {
				fmt.Fprintf(&sb, "  - %s: dropped, %s\n", f.Name, f.Recipe)

				continue
			}

			fmt.Fprintf(&sb, "  + %s -> %q %s, %s", f.Name, f.JSON, f.Mirror, f.Recipe)

			if f.Flatten {
				sb.WriteString(" [flatten]")
			}

			if f.Omit != "" {
				fmt.Fprintf(&sb, " [omit %s]", f.Omit)
			}

			sb.WriteByte('\n')
		}
	}

	for _, e := range report.Enums {
		fmt.Fprintf(&sb, "\n=== enum %s ===\n", e.Name)

		for _, v := range e.Variants {
			payload := "unit"
			if v.Payload != "" {
				payload = v.Payload
			}

			fmt.Fprintf(&sb, "  %d %s -> %q %s\n", v.Kind, v.Name, v.JSON, payload)
		}

		if e.CatchAll {
			sb.WriteString("  * unknown variants preserved\n")
		}
	}

	if len(report.Empty) > 0 {
		fmt.Fprintf(&sb, "\nempty: %s\n", strings.Join(report.Empty, ", "))
	}

	if len(report.Manual) > 0 {
		fmt.Fprintf(&sb, "manual: %s\n", strings.Join(report.Manual, ", "))
	}

	return sb.String()
}
