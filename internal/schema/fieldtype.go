package schema

// FieldType is the input type of a process field.
type FieldType int

const (
	// FieldUnknown is used for a `tipo` this version does not recognise. Such fields are reported by
	// [Schema.Diagnostics] and handled like plain text.
	FieldUnknown FieldType = iota
	FieldText
	FieldTextarea
	FieldNumber
	FieldDate
	FieldSelect
	FieldMultiSelect
	FieldCheckboxGroup
	FieldRadio
	FieldMultiFile
)

var fieldTypeTags = map[string]FieldType{
	"texto":            FieldText,
	"area_texto":       FieldTextarea,
	"numero":           FieldNumber,
	"data":             FieldDate,
	"selecao":          FieldSelect,
	"multi_selecao":    FieldMultiSelect,
	"checkbox":         FieldCheckboxGroup,
	"radio":            FieldRadio,
	"upload_multiplos": FieldMultiFile,
}

// ParseFieldType maps the `tipo` tag of the schema document to a FieldType.
func ParseFieldType(tag string) FieldType {
	if t, ok := fieldTypeTags[tag]; ok {
		return t
	}
	return FieldUnknown
}

func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "text"
	case FieldTextarea:
		return "textarea"
	case FieldNumber:
		return "number"
	case FieldDate:
		return "date"
	case FieldSelect:
		return "single-select"
	case FieldMultiSelect:
		return "multi-select"
	case FieldCheckboxGroup:
		return "checkbox-group"
	case FieldRadio:
		return "radio"
	case FieldMultiFile:
		return "multi-file"
	case FieldUnknown:
		return "unknown"
	}
	return "unknown"
}

// HasOptions reports whether the type picks its value from Field.Options.
func (t FieldType) HasOptions() bool {
	switch t {
	case FieldSelect, FieldMultiSelect, FieldCheckboxGroup, FieldRadio:
		return true
	case FieldUnknown, FieldText, FieldTextarea, FieldNumber, FieldDate, FieldMultiFile:
		return false
	}
	return false
}

// IsList reports whether answers of the type are ordered lists of strings.
func (t FieldType) IsList() bool {
	return t == FieldMultiSelect || t == FieldCheckboxGroup
}

// InitialFieldType is the input type of a basic-information field.
type InitialFieldType int

const (
	InitialText InitialFieldType = iota
	InitialPassword
	InitialDate
)

func (t InitialFieldType) String() string {
	switch t {
	case InitialText:
		return "text"
	case InitialPassword:
		return "password-text"
	case InitialDate:
		return "date"
	}
	return "text"
}
