package form

import (
	"github.com/labqa/inspection/internal/schema"
	"github.com/labqa/inspection/internal/validity"
	"strings"
	"time"
)

// Synthetic labels reported when no sector or process has been chosen.
const (
	LabelSector  = "Setor Inspecionado"
	LabelProcess = "Processo a ser Inspecionado"
)

// CollectMissingRequired lists the labels of required, active fields of process that have no answer. Form fields come
// first in schema order, followed by the live fields of a solutions process.
//
// The errors are the conditional diagnostics met on the way. They never make a field missing.
func CollectMissingRequired(process *schema.Process, answers *Answers, live LiveFields) ([]string, []error) {
	var (
		missing []string
		diags   []error
	)
	fields := append(process.FormFields(), process.LiveFields()...)
	for _, f := range fields {
		if !f.Required {
			continue
		}
		active, err := IsActive(f, process, answers, live)
		if err != nil {
			diags = append(diags, err)
		}
		if !active {
			continue
		}
		if isEmpty(f, process, answers, live) {
			missing = append(missing, f.Label)
		}
	}
	return missing, diags
}

func isEmpty(f *schema.Field, process *schema.Process, answers *Answers, live LiveFields) bool {
	switch {
	case process.IsLive(f):
		if f.Key == schema.KeyPreparationDate {
			return blank(live.PreparationDate)
		}
		return blank(live.Category)
	case process.IsComputedExpiry(f):
		return blank(live.PreparationDate) || blank(live.Category)
	}

	v, _ := answers.Get(f.Label)
	switch f.Type {
	case schema.FieldText, schema.FieldTextarea, schema.FieldDate, schema.FieldSelect, schema.FieldRadio,
		schema.FieldUnknown:
		return blank(v.String())
	case schema.FieldMultiSelect, schema.FieldCheckboxGroup:
		return len(v.List) == 0
	case schema.FieldMultiFile:
		return len(answers.AttachmentsOf(f.Label)) == 0
	case schema.FieldNumber:
		return v.Kind != KindNumber
	}
	return !v.IsSet()
}

// CollectMissingInitial applies the same check to the basic-information step. The sector and process choices count as
// required fields labelled [LabelSector] and [LabelProcess].
//
// A date field holding anything but a YYYY-MM-DD date is reported as well, required or not, so that it is corrected
// before it reaches the record.
func CollectMissingInitial(fields []schema.InitialField, basicInfo map[string]string, sectorName,
	processName string) []string {
	var missing []string
	for _, f := range fields {
		v := basicInfo[f.Key]
		switch {
		case blank(v):
			if f.Required {
				missing = append(missing, f.Label)
			}
		case f.Type == schema.InitialDate && !isDate(v):
			missing = append(missing, f.Label)
		}
	}
	if blank(sectorName) {
		missing = append(missing, LabelSector)
	}
	if blank(processName) {
		missing = append(missing, LabelProcess)
	}
	return missing
}

func isDate(s string) bool {
	_, err := time.Parse(validity.DateLayout, s)
	return err == nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
