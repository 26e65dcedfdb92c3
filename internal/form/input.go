package form

import (
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/schema"
	"github.com/labqa/inspection/internal/validity"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidInput = errors.NewSentinel("invalid input")

// ParseInput converts the raw submitted values of field into a [Value].
//
// Missing input yields an unset value so that the field counts as unanswered. Multi-file fields take their content
// through [Answers.SetAttachments] and always yield an unset value here.
func ParseInput(field *schema.Field, inputs []string) (Value, error) {
	first := ""
	if len(inputs) > 0 {
		first = inputs[0]
	}
	invalid := func(msg string) (Value, error) {
		return Value{}, errors.Wrap(ErrInvalidInput, msg,
			slog.String("field", field.Key), slog.String("input", first))
	}

	switch field.Type {
	case schema.FieldText, schema.FieldTextarea, schema.FieldUnknown:
		if len(inputs) == 0 {
			return Value{}, nil
		}
		return Text(first), nil
	case schema.FieldDate:
		if strings.TrimSpace(first) == "" {
			return Value{}, nil
		}
		if _, err := time.Parse(validity.DateLayout, first); err != nil {
			return invalid("date is not YYYY-MM-DD")
		}
		return Text(first), nil
	case schema.FieldSelect, schema.FieldRadio:
		if strings.TrimSpace(first) == "" {
			return Value{}, nil
		}
		if !slices.Contains(field.Options, first) {
			return invalid("value is not an option")
		}
		return Text(first), nil
	case schema.FieldMultiSelect, schema.FieldCheckboxGroup:
		items := make([]string, 0, len(inputs))
		for _, in := range inputs {
			if in == "" {
				continue
			}
			if !slices.Contains(field.Options, in) {
				return invalid("value is not an option")
			}
			items = append(items, in)
		}
		return List(items), nil
	case schema.FieldNumber:
		if strings.TrimSpace(first) == "" {
			return Value{}, nil
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(first), 64)
		if err != nil {
			return invalid("not a number")
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return invalid("number is not finite")
		}
		return Number(n), nil
	case schema.FieldMultiFile:
		return Value{}, nil
	}
	return Value{}, nil
}
