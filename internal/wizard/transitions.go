package wizard

import (
	"context"
	"fmt"
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/flatten"
	"github.com/labqa/inspection/internal/form"
	"github.com/labqa/inspection/internal/schema"
	"log/slog"
	"maps"
	"time"
)

func (e *Engine) requireStep(s *Session, step Step) error {
	if s.Step != step {
		return errors.Wrap(ErrWrongStep, "check step",
			slog.String("want", step.String()), slog.String("got", s.Step.String()))
	}
	return nil
}

// SubmitBasicInfo records the basic information and the chosen sector and process and moves to the selection step.
//
// The entered values are kept even when the guard fails so that the step can be rendered again with them. Names
// that do not resolve in the schema count as not chosen.
func (e *Engine) SubmitBasicInfo(
	ctx context.Context,
	s *Session,
	basicInfo map[string]string,
	sectorName string,
	processName string,
) (Outcome, error) {
	if err := e.requireStep(s, StepBasicInfo); err != nil {
		return Outcome{}, err
	}

	s.Record.BasicInfo = maps.Clone(basicInfo)
	s.Record.SectorKey, s.Record.SectorName = "", ""
	s.Record.ProcessKey, s.Record.ProcessName = "", ""
	sector, process, _ := e.schema.Resolve(sectorName, processName)
	resolvedSector, resolvedProcess := "", ""
	if sector != nil {
		resolvedSector = sector.Name
		s.Record.SectorKey, s.Record.SectorName = sector.Key, sector.Name
	}
	if process != nil {
		resolvedProcess = process.Name
		s.Record.ProcessKey, s.Record.ProcessName = process.Key, process.Name
	}

	missing := form.CollectMissingInitial(e.schema.InitialFields, basicInfo, resolvedSector, resolvedProcess)
	if len(missing) > 0 {
		s.Missing = missing
		return Outcome{Missing: missing}, nil
	}

	s.Record.Answers.Reset()
	s.Live = e.defaultLive(process)
	s.Missing = nil
	s.Warnings = nil
	s.Step = StepSelection
	e.logger.LogAttrs(ctx, slog.LevelDebug, "basic info accepted",
		slog.String("sector", sector.Key), slog.String("process", process.Key))
	return Outcome{}, nil
}

// SelectProcess confirms or changes the sector and process and opens the process form. Choosing a different process
// discards the answers given so far.
func (e *Engine) SelectProcess(ctx context.Context, s *Session, sectorName string, processName string) (Outcome,
	error) {
	if err := e.requireStep(s, StepSelection); err != nil {
		return Outcome{}, err
	}

	sector, process, _ := e.schema.Resolve(sectorName, processName)
	var missing []string
	if sector == nil {
		missing = append(missing, form.LabelSector)
	}
	if process == nil {
		missing = append(missing, form.LabelProcess)
	}
	if len(missing) > 0 {
		s.Missing = missing
		return Outcome{Missing: missing}, nil
	}

	if sector.Key != s.Record.SectorKey || process.Key != s.Record.ProcessKey {
		s.Record.Answers.Reset()
		s.Live = e.defaultLive(process)
	}
	s.Record.SectorKey, s.Record.SectorName = sector.Key, sector.Name
	s.Record.ProcessKey, s.Record.ProcessName = process.Key, process.Name
	s.Missing = nil
	s.Step = StepProcessForm
	e.logger.LogAttrs(ctx, slog.LevelDebug, "process selected",
		slog.String("sector", sector.Key), slog.String("process", process.Key))
	return Outcome{}, nil
}

func (e *Engine) formField(s *Session, key string) (*schema.Process, *schema.Field, error) {
	if err := e.requireStep(s, StepProcessForm); err != nil {
		return nil, nil, err
	}
	_, process, ok := e.Current(s)
	if !ok {
		return nil, nil, errors.Wrap(ErrUnknownField, "resolve process",
			slog.String("process", s.Record.ProcessName))
	}
	f, ok := process.FieldByKey(key)
	if !ok {
		return nil, nil, errors.Wrap(ErrUnknownField, "resolve field", slog.String("field", key))
	}
	return process, f, nil
}

// SetResponse stores the answer of a form field. An unset value removes the answer. Live fields are routed to the
// live state.
func (e *Engine) SetResponse(s *Session, fieldKey string, v form.Value) error {
	process, f, err := e.formField(s, fieldKey)
	if err != nil {
		return err
	}
	switch {
	case process.IsComputedExpiry(f):
		return errors.Wrap(ErrComputedField, "set response", slog.String("field", fieldKey))
	case process.IsLive(f) && f.Key == schema.KeyPreparationDate:
		s.Live.PreparationDate = v.String()
	case process.IsLive(f):
		s.Live.Category = v.String()
	case !v.IsSet():
		s.Record.Answers.Delete(f.Label)
	default:
		s.Record.Answers.Set(f.Label, v)
	}
	return nil
}

// SetLive updates the preparation date and category of a solutions process. The date must be blank or YYYY-MM-DD
// and the category blank or one of the options of its field; otherwise the live state is left as it was.
func (e *Engine) SetLive(s *Session, prepDate string, category string) error {
	if err := e.requireStep(s, StepProcessForm); err != nil {
		return err
	}
	_, process, ok := e.Current(s)
	if !ok || !process.IsSolutions() {
		return errors.Wrap(ErrNotSolutions, "set live fields", slog.String("process", s.Record.ProcessKey))
	}
	var err error
	if prepDate, err = liveInput(process, schema.KeyPreparationDate, prepDate); err != nil {
		return err
	}
	if category, err = liveInput(process, schema.KeyCategory, category); err != nil {
		return err
	}
	s.Live = form.LiveFields{PreparationDate: prepDate, Category: category}
	return nil
}

// liveInput checks a live value against its field. Schemas without the field accept any value.
func liveInput(process *schema.Process, key string, input string) (string, error) {
	f, ok := process.FieldByKey(key)
	if !ok {
		return input, nil
	}
	v, err := form.ParseInput(f, []string{input})
	if err != nil {
		return "", errors.Wrap(err, "set live fields")
	}
	return v.String(), nil
}

// SetAttachments replaces the pending files of a multi-file field.
func (e *Engine) SetAttachments(s *Session, fieldKey string, files []form.Attachment) error {
	_, f, err := e.formField(s, fieldKey)
	if err != nil {
		return err
	}
	if f.Type != schema.FieldMultiFile {
		return errors.Wrap(ErrUnknownField, "field takes no files",
			slog.String("field", fieldKey), slog.String("type", f.Type.String()))
	}
	s.Record.Answers.SetAttachments(f.Label, files)
	return nil
}

// Submit completes the inspection when every required, active field is answered.
//
// The live values and the computed expiry are copied into the responses, answers of inactive fields are dropped,
// pending attachments are uploaded and the flattened record is appended to the store. Storage failures are returned as
// warnings: the record stays in the session history and the wizard still moves to the completion step.
func (e *Engine) Submit(ctx context.Context, s *Session) (Outcome, error) {
	if err := e.requireStep(s, StepProcessForm); err != nil {
		return Outcome{}, err
	}
	_, process, ok := e.Current(s)
	if !ok {
		return Outcome{}, errors.Wrap(ErrUnknownField, "resolve process",
			slog.String("process", s.Record.ProcessName))
	}

	missing, diags := form.CollectMissingRequired(process, &s.Record.Answers, s.Live)
	for _, err := range diags {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "schema problem", errors.SlogError(err))
	}
	if len(missing) > 0 {
		s.Missing = missing
		return Outcome{Missing: missing}, nil
	}

	record := s.Record.Clone()
	e.finalizeAnswers(process, &record.Answers, s.Live)

	var warnings []string
	for label, files := range record.Answers.Attachments {
		for i := range files {
			if !files[i].Pending() {
				continue
			}
			id, err := e.store.UploadAttachment(ctx, files[i].Content, files[i].Name)
			if err != nil {
				e.logger.LogAttrs(ctx, slog.LevelError, "upload attachment",
					slog.String("label", label), slog.String("name", files[i].Name), errors.SlogError(err))
				warnings = append(warnings, fmt.Sprintf("Falha ao enviar a evidência %q.", files[i].Name))
				continue
			}
			files[i].StorageID = id
			files[i].Content = nil
		}
	}

	record.SubmittedAt = e.now()
	row := flatten.Flatten(record)
	s.History = append(s.History, record)
	last := record.Clone()
	s.Last = &last

	if err := e.store.AppendRecord(ctx, row); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelError, "append record", errors.SlogError(err))
		warnings = append(warnings, "A inspeção foi registada na sessão, mas não pôde ser salva no armazenamento.")
	}

	s.Record.Answers.Reset()
	s.Missing = nil
	s.Warnings = warnings
	s.Step = StepCompletion
	e.logger.LogAttrs(ctx, slog.LevelInfo, "inspection submitted",
		slog.String("process", process.Key), slog.Int("history", len(s.History)),
		slog.Int("warnings", len(warnings)))
	return Outcome{Warnings: warnings}, nil
}

// finalizeAnswers copies the live fields and the computed expiry into answers and drops inactive fields.
func (e *Engine) finalizeAnswers(process *schema.Process, answers *form.Answers, live form.LiveFields) {
	for _, f := range process.FormFields() {
		active, _ := form.IsActive(f, process, answers, live)
		switch {
		case !active:
			answers.Delete(f.Label)
			answers.SetAttachments(f.Label, nil)
		case process.IsComputedExpiry(f):
			answers.Set(f.Label, form.Text(e.expiry(live)))
		}
	}
	for _, f := range process.LiveFields() {
		if f.Key == schema.KeyPreparationDate {
			answers.Set(f.Label, form.Text(live.PreparationDate))
		} else {
			answers.Set(f.Label, form.Text(live.Category))
		}
	}
}

// Back moves from the process form to the selection step keeping the answers, and from the completion step back to
// the process form with the answers of the last submitted record restored. It does nothing in other steps.
func (e *Engine) Back(s *Session) {
	switch s.Step {
	case StepProcessForm:
		s.Step = StepSelection
	case StepCompletion:
		if s.Last == nil {
			return
		}
		s.Record = s.Last.Clone()
		s.Record.SubmittedAt = time.Time{}
		e.restoreLive(s)
		s.Step = StepProcessForm
	case StepBasicInfo, StepSelection:
	}
	s.Missing = nil
	s.Warnings = nil
}

// restoreLive moves the live fields and the computed expiry out of the restored responses.
func (e *Engine) restoreLive(s *Session) {
	_, process, ok := e.Current(s)
	if !ok || !process.IsSolutions() {
		return
	}
	for _, f := range process.LiveFields() {
		v, _ := s.Record.Answers.Get(f.Label)
		if f.Key == schema.KeyPreparationDate {
			s.Live.PreparationDate = v.String()
		} else {
			s.Live.Category = v.String()
		}
		s.Record.Answers.Delete(f.Label)
	}
	if f, ok := process.FieldByKey(schema.KeyExpiry); ok {
		s.Record.Answers.Delete(f.Label)
	}
}

// Restart returns to the basic-information step with a fresh record. The session history is kept.
func (e *Engine) Restart(s *Session) {
	*s = Session{
		Step:    StepBasicInfo,
		History: s.History,
	}
}
