package schema

import (
	"fmt"
	"strings"
)

// Problem classifies a [Diagnostic].
type Problem string

const (
	ProblemDanglingCondition Problem = "conditional references a field that does not exist in the process"
	ProblemEmptyOptions      Problem = "field has no options"
	ProblemDuplicateKey      Problem = "duplicate field key"
	ProblemDuplicateLabel    Problem = "duplicate field label"
	ProblemUnknownType       Problem = "unknown field type"
	ProblemSelfCondition     Problem = "conditional references the field itself"
	ProblemEvidenceColumn    Problem = "label collides with the evidence column of a file field"
)

// EvidencePrefix starts the export column of the files of a multi-file field. A field labelled like that column
// would have its answer replaced by the file names.
const EvidencePrefix = "Evidence: "

// Diagnostic is a problem of one field that does not prevent the schema from loading.
type Diagnostic struct {
	Sector  string  `yaml:"sector"`
	Process string  `yaml:"process"`
	Field   string  `yaml:"field"`
	Problem Problem `yaml:"problem"`
	Detail  string  `yaml:"detail,omitempty"`
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s / %s / %s: %s", d.Sector, d.Process, d.Field, d.Problem)
	if d.Detail != "" {
		s += " (" + d.Detail + ")"
	}
	return s
}

// Diagnostics runs the checks that Load defers to the point of use.
func (s *Schema) Diagnostics() []Diagnostic {
	var diags []Diagnostic
	for si := range s.Sectors {
		sector := &s.Sectors[si]
		for pi := range sector.Processes {
			diags = append(diags, sector.Processes[pi].diagnostics(sector.Name)...)
		}
	}
	return diags
}

func (p *Process) diagnostics(sectorName string) []Diagnostic {
	var diags []Diagnostic
	report := func(f *Field, problem Problem, detail string) {
		diags = append(diags, Diagnostic{
			Sector:  sectorName,
			Process: p.Name,
			Field:   f.Key,
			Problem: problem,
			Detail:  detail,
		})
	}
	for i := range p.Fields {
		f := &p.Fields[i]
		if first := p.fieldsByKey[f.Key]; first != i {
			report(f, ProblemDuplicateKey, "")
		}
		if first := p.fieldsByLabel[f.Label]; first != i {
			report(f, ProblemDuplicateLabel, f.Label)
		}
		if f.Type == FieldUnknown {
			report(f, ProblemUnknownType, f.RawType)
		}
		if f.Type.HasOptions() && len(f.Options) == 0 {
			report(f, ProblemEmptyOptions, "")
		}
		if strings.HasPrefix(f.Label, EvidencePrefix) {
			if owner, ok := p.FieldByLabel(strings.TrimPrefix(f.Label, EvidencePrefix)); ok &&
				owner.Type == FieldMultiFile {
				report(f, ProblemEvidenceColumn, owner.Key)
			}
		}
		if f.Conditional != nil {
			switch _, ok := p.FieldByKey(f.Conditional.DependsOn); {
			case f.Conditional.DependsOn == f.Key:
				report(f, ProblemSelfCondition, "")
			case !ok:
				report(f, ProblemDanglingCondition, f.Conditional.DependsOn)
			}
		}
	}
	return diags
}
