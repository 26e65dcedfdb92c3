// Package schema decodes and indexes the inspection schema: basic-information fields, sectors with their processes
// and fields, and the validity rules of prepared solutions.
//
// A loaded [Schema] is immutable and safe to share between requests.
package schema

import (
	"bytes"
	"encoding/json"
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/validity"
	"log/slog"
	"strings"
)

// ErrSchema marks a schema document that cannot drive the wizard.
var ErrSchema = errors.NewSentinel("invalid inspection schema")

// Keys of the solutions process fields that are handled outside the main field loop.
const (
	SolutionsProcessPrefix = "solucoes"
	KeyPreparationDate     = "solucao_data_preparo"
	KeyCategory            = "solucao_tipo"
	KeyExpiry              = "solucao_data_validade"
)

// InitialField is a basic-information field collected in the first wizard step.
type InitialField struct {
	Key      string
	Label    string
	Type     InitialFieldType
	Required bool
}

// Conditional makes a field visible only while another field of the same process holds a given value.
type Conditional struct {
	DependsOn string
	Equals    string
}

// Field is one question of a process checklist.
type Field struct {
	Key      string
	Label    string
	Type     FieldType
	RawType  string
	Required bool
	Options  []string
	// Step is the increment of number fields.
	Step        float64
	Conditional *Conditional
}

// Process is an inspection checklist.
type Process struct {
	Key    string
	Name   string
	Fields []Field

	fieldsByKey   map[string]int
	fieldsByLabel map[string]int
}

// Sector groups processes.
type Sector struct {
	Key       string
	Name      string
	Processes []Process

	processesByName map[string]int
	processesByKey  map[string]int
}

// Schema is the loaded inspection schema.
type Schema struct {
	InitialFields []InitialField
	Sectors       []Sector
	Rules         map[string]validity.Rule

	sectorsByName map[string]int
	sectorsByKey  map[string]int
}

type rawInitialField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Type     string `json:"tipo"`
	Subtype  string `json:"subtipo"`
	Required bool   `json:"obrigatorio"`
}

type rawConditional struct {
	Field string          `json:"campo"`
	Value json.RawMessage `json:"valor"`
}

type rawField struct {
	Key         string          `json:"key"`
	Label       string          `json:"label"`
	Type        string          `json:"tipo"`
	Required    bool            `json:"obrigatorio"`
	Options     []string        `json:"opcoes"`
	Step        *float64        `json:"step"`
	Conditional *rawConditional `json:"condicional"`
}

type rawProcess struct {
	Key    string      `json:"key"`
	Name   string      `json:"nome"`
	Fields *[]rawField `json:"campos"`
}

type rawSector struct {
	Key       string        `json:"key"`
	Name      string        `json:"nome"`
	Processes *[]rawProcess `json:"processos"`
}

type rawSchema struct {
	InitialFields *[]rawInitialField       `json:"informacoes_iniciais"`
	Sectors       *[]rawSector             `json:"setores_inspecao"`
	Rules         map[string]validity.Rule `json:"regras_validade_solucoes"`
}

// Load decodes the schema document and builds the lookup indexes.
//
// Only the top-level shape is validated. Problems that affect single fields, such as dangling conditional references
// or empty option lists, are left to [Schema.Diagnostics] and to the point of use so that one malformed process does
// not take the others down.
func Load(raw []byte) (*Schema, error) {
	var doc rawSchema
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(ErrSchema, "decode json: "+err.Error())
	}
	if doc.InitialFields == nil {
		return nil, errors.Wrap(ErrSchema, "missing list", slog.String("key", "informacoes_iniciais"))
	}
	if doc.Sectors == nil {
		return nil, errors.Wrap(ErrSchema, "missing list", slog.String("key", "setores_inspecao"))
	}

	s := &Schema{
		InitialFields: make([]InitialField, 0, len(*doc.InitialFields)),
		Sectors:       make([]Sector, 0, len(*doc.Sectors)),
		Rules:         doc.Rules,
		sectorsByName: make(map[string]int, len(*doc.Sectors)),
		sectorsByKey:  make(map[string]int, len(*doc.Sectors)),
	}
	if s.Rules == nil {
		s.Rules = map[string]validity.Rule{}
	}

	for _, f := range *doc.InitialFields {
		t := InitialText
		switch {
		case f.Type == "data":
			t = InitialDate
		case f.Subtype == "password":
			t = InitialPassword
		}
		s.InitialFields = append(s.InitialFields, InitialField{
			Key:      f.Key,
			Label:    f.Label,
			Type:     t,
			Required: f.Required,
		})
	}

	for _, rs := range *doc.Sectors {
		if rs.Processes == nil {
			return nil, errors.Wrap(ErrSchema, "sector without process list", slog.String("sector", rs.Name))
		}
		sector := Sector{
			Key:             rs.Key,
			Name:            rs.Name,
			Processes:       make([]Process, 0, len(*rs.Processes)),
			processesByName: make(map[string]int, len(*rs.Processes)),
			processesByKey:  make(map[string]int, len(*rs.Processes)),
		}
		for _, rp := range *rs.Processes {
			if rp.Fields == nil {
				return nil, errors.Wrap(ErrSchema, "process without field list",
					slog.String("sector", rs.Name), slog.String("process", rp.Name))
			}
			process := newProcess(rp)
			addIndex(sector.processesByName, process.Name, len(sector.Processes))
			addIndex(sector.processesByKey, process.Key, len(sector.Processes))
			sector.Processes = append(sector.Processes, process)
		}
		addIndex(s.sectorsByName, sector.Name, len(s.Sectors))
		addIndex(s.sectorsByKey, sector.Key, len(s.Sectors))
		s.Sectors = append(s.Sectors, sector)
	}

	return s, nil
}

func newProcess(rp rawProcess) Process {
	p := Process{
		Key:           rp.Key,
		Name:          rp.Name,
		Fields:        make([]Field, 0, len(*rp.Fields)),
		fieldsByKey:   make(map[string]int, len(*rp.Fields)),
		fieldsByLabel: make(map[string]int, len(*rp.Fields)),
	}
	for _, rf := range *rp.Fields {
		f := Field{
			Key:      rf.Key,
			Label:    rf.Label,
			Type:     ParseFieldType(rf.Type),
			RawType:  rf.Type,
			Required: rf.Required,
			Options:  rf.Options,
			Step:     1,
		}
		if rf.Step != nil {
			f.Step = *rf.Step
		}
		if rf.Conditional != nil {
			f.Conditional = &Conditional{
				DependsOn: rf.Conditional.Field,
				Equals:    stringify(rf.Conditional.Value),
			}
		}
		addIndex(p.fieldsByKey, f.Key, len(p.Fields))
		addIndex(p.fieldsByLabel, f.Label, len(p.Fields))
		p.Fields = append(p.Fields, f)
	}
	return p
}

// addIndex keeps the first occurrence of duplicated names.
func addIndex(index map[string]int, name string, i int) {
	if _, ok := index[name]; !ok {
		index[name] = i
	}
}

// stringify returns JSON strings unquoted and any other JSON value in its literal form.
func stringify(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if raw[0] == '"' && json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

// SectorByName finds a sector by its display name.
func (s *Schema) SectorByName(name string) (*Sector, bool) {
	i, ok := s.sectorsByName[name]
	if !ok {
		return nil, false
	}
	return &s.Sectors[i], true
}

// SectorByKey finds a sector by key.
func (s *Schema) SectorByKey(key string) (*Sector, bool) {
	i, ok := s.sectorsByKey[key]
	if !ok {
		return nil, false
	}
	return &s.Sectors[i], true
}

// SectorNames lists the sector names in schema order.
func (s *Schema) SectorNames() []string {
	names := make([]string, len(s.Sectors))
	for i := range s.Sectors {
		names[i] = s.Sectors[i].Name
	}
	return names
}

// Resolve finds the sector and process selected by name.
func (s *Schema) Resolve(sectorName, processName string) (*Sector, *Process, bool) {
	sector, ok := s.SectorByName(sectorName)
	if !ok {
		return nil, nil, false
	}
	process, ok := sector.ProcessByName(processName)
	if !ok {
		return sector, nil, false
	}
	return sector, process, true
}

// ProcessByName finds a process of the sector by its display name.
func (sec *Sector) ProcessByName(name string) (*Process, bool) {
	i, ok := sec.processesByName[name]
	if !ok {
		return nil, false
	}
	return &sec.Processes[i], true
}

// ProcessByKey finds a process of the sector by key.
func (sec *Sector) ProcessByKey(key string) (*Process, bool) {
	i, ok := sec.processesByKey[key]
	if !ok {
		return nil, false
	}
	return &sec.Processes[i], true
}

// ProcessNames lists the process names in schema order.
func (sec *Sector) ProcessNames() []string {
	names := make([]string, len(sec.Processes))
	for i := range sec.Processes {
		names[i] = sec.Processes[i].Name
	}
	return names
}

// FieldByKey finds a field of the process by key.
func (p *Process) FieldByKey(key string) (*Field, bool) {
	i, ok := p.fieldsByKey[key]
	if !ok {
		return nil, false
	}
	return &p.Fields[i], true
}

// FieldByLabel finds a field of the process by label.
func (p *Process) FieldByLabel(label string) (*Field, bool) {
	i, ok := p.fieldsByLabel[label]
	if !ok {
		return nil, false
	}
	return &p.Fields[i], true
}

// IsSolutions reports whether the process is a solutions checklist whose preparation date and category fields are
// rendered outside the form so that the expiry reacts immediately.
func (p *Process) IsSolutions() bool {
	return strings.HasPrefix(p.Key, SolutionsProcessPrefix)
}

// IsLive reports whether f is one of the externally reactive fields of p.
func (p *Process) IsLive(f *Field) bool {
	return p.IsSolutions() && (f.Key == KeyPreparationDate || f.Key == KeyCategory)
}

// IsComputedExpiry reports whether f displays the computed expiry instead of taking input.
func (p *Process) IsComputedExpiry(f *Field) bool {
	return p.IsSolutions() && f.Key == KeyExpiry
}

// FormFields returns the fields rendered inside the main form, in schema order.
func (p *Process) FormFields() []*Field {
	fields := make([]*Field, 0, len(p.Fields))
	for i := range p.Fields {
		if !p.IsLive(&p.Fields[i]) {
			fields = append(fields, &p.Fields[i])
		}
	}
	return fields
}

// LiveFields returns the externally reactive fields, in schema order.
func (p *Process) LiveFields() []*Field {
	var fields []*Field
	for i := range p.Fields {
		if p.IsLive(&p.Fields[i]) {
			fields = append(fields, &p.Fields[i])
		}
	}
	return fields
}
