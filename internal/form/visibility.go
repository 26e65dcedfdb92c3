// Package form holds the answers of an inspection and decides which fields are visible and which required fields are
// still missing.
package form

import (
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/schema"
	"log/slog"
)

// ErrDanglingCondition is reported for a field whose conditional references a field missing from its process.
var ErrDanglingCondition = errors.NewSentinel("conditional references unknown field")

// ErrSelfCondition is reported for a field whose conditional references the field itself.
var ErrSelfCondition = errors.NewSentinel("conditional references the field itself")

// IsActive reports whether field is currently visible.
//
// A field without conditional is always active. A field whose conditional references a field that does not exist in
// process is inactive and the returned error wraps [ErrDanglingCondition]; callers log it and carry on with the
// remaining fields. A field conditional on itself is inactive in the same way and the error wraps [ErrSelfCondition].
func IsActive(field *schema.Field, process *schema.Process, answers *Answers, live LiveFields) (bool, error) {
	if field.Conditional == nil {
		return true, nil
	}
	if field.Conditional.DependsOn == field.Key {
		return false, errors.Wrap(ErrSelfCondition, "evaluate conditional",
			slog.String("process", process.Key),
			slog.String("field", field.Key))
	}
	dep, ok := process.FieldByKey(field.Conditional.DependsOn)
	if !ok {
		return false, errors.Wrap(ErrDanglingCondition, "evaluate conditional",
			slog.String("process", process.Key),
			slog.String("field", field.Key),
			slog.String("depends_on", field.Conditional.DependsOn))
	}
	return dependencyValue(dep, process, answers, live) == field.Conditional.Equals, nil
}

func dependencyValue(dep *schema.Field, process *schema.Process, answers *Answers, live LiveFields) string {
	if process.IsLive(dep) {
		if dep.Key == schema.KeyPreparationDate {
			return live.PreparationDate
		}
		return live.Category
	}
	v, _ := answers.Get(dep.Label)
	return v.String()
}
