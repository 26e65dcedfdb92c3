// Package wizard drives an inspection through its steps: basic information, sector and process selection, the process
// form and completion.
//
// All mutable state lives in a [Session] owned by the caller. The [Engine] holds the schema and the storage adapter
// and is safe for concurrent use as long as each session is used by one goroutine at a time.
package wizard

import (
	"context"
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/flatten"
	"github.com/labqa/inspection/internal/form"
	"github.com/labqa/inspection/internal/schema"
	"github.com/labqa/inspection/internal/validity"
	"log/slog"
	"time"
)

// Step of the wizard.
type Step int

const (
	StepBasicInfo Step = iota
	StepSelection
	StepProcessForm
	StepCompletion
)

func (s Step) String() string {
	switch s {
	case StepBasicInfo:
		return "basic-info"
	case StepSelection:
		return "selection"
	case StepProcessForm:
		return "process-form"
	case StepCompletion:
		return "completion"
	}
	return "unknown"
}

var (
	ErrWrongStep     = errors.NewSentinel("operation not allowed in current step")
	ErrUnknownField  = errors.NewSentinel("unknown field")
	ErrComputedField = errors.NewSentinel("field is computed")
	ErrNotSolutions  = errors.NewSentinel("process has no live fields")
)

// Session is the state of one user's wizard. It is gob encoded between requests.
type Session struct {
	Step Step
	// Record is the inspection being filled in.
	Record form.Record
	Live   form.LiveFields
	// Last is the most recently submitted record.
	Last *form.Record
	// History holds every record submitted in this session, whether or not it reached the store.
	History []form.Record
	// Missing lists the labels reported by the last failed guard.
	Missing []string
	// Warnings are the storage failures of the last submission.
	Warnings []string
}

// NewSession returns a session at the basic-information step.
func NewSession() *Session {
	return &Session{Step: StepBasicInfo}
}

// HistoryRows flattens the session history.
func (s *Session) HistoryRows() []flatten.Row {
	rows := make([]flatten.Row, len(s.History))
	for i := range s.History {
		rows[i] = flatten.Flatten(s.History[i])
	}
	return rows
}

// Outcome reports what blocked or degraded a transition.
type Outcome struct {
	// Missing is set when a guard failed. The step did not change.
	Missing []string
	// Warnings are non-blocking failures of the storage adapter.
	Warnings []string
}

// OK reports whether the guard passed.
func (o Outcome) OK() bool {
	return len(o.Missing) == 0
}

// Store receives submitted inspections.
type Store interface {
	AppendRecord(ctx context.Context, row flatten.Row) error
	UploadAttachment(ctx context.Context, content []byte, name string) (string, error)
}

// Engine applies wizard operations to sessions.
type Engine struct {
	schema *schema.Schema
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

// NewEngine creates an engine. A nil now uses [time.Now].
func NewEngine(s *schema.Schema, store Store, now func() time.Time, logger *slog.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		schema: s,
		store:  store,
		now:    now,
		logger: logger,
	}
}

func (e *Engine) Schema() *schema.Schema {
	return e.schema
}

// Current resolves the sector and process selected in the session.
func (e *Engine) Current(s *Session) (*schema.Sector, *schema.Process, bool) {
	return e.schema.Resolve(s.Record.SectorName, s.Record.ProcessName)
}

// Expiry renders the expiry computed from the live fields. It is empty outside solutions processes.
func (e *Engine) Expiry(s *Session) string {
	_, process, ok := e.Current(s)
	if !ok || !process.IsSolutions() {
		return ""
	}
	return e.expiry(s.Live)
}

func (e *Engine) expiry(live form.LiveFields) string {
	return validity.Display(live.PreparationDate, live.Category, e.schema.Rules)
}

// VisibleFields returns the active form fields of the current process in schema order.
func (e *Engine) VisibleFields(ctx context.Context, s *Session) []*schema.Field {
	_, process, ok := e.Current(s)
	if !ok {
		return nil
	}
	var visible []*schema.Field
	for _, f := range process.FormFields() {
		active, err := form.IsActive(f, process, &s.Record.Answers, s.Live)
		if err != nil {
			e.logger.LogAttrs(ctx, slog.LevelWarn, "schema problem", errors.SlogError(err))
		}
		if active {
			visible = append(visible, f)
		}
	}
	return visible
}

// defaultLive returns today's date and the first category option of a solutions process.
func (e *Engine) defaultLive(process *schema.Process) form.LiveFields {
	live := form.LiveFields{
		PreparationDate: e.now().Format(validity.DateLayout),
		Category:        "",
	}
	if process == nil || !process.IsSolutions() {
		return live
	}
	if f, ok := process.FieldByKey(schema.KeyCategory); ok && len(f.Options) > 0 {
		live.Category = f.Options[0]
	}
	return live
}
