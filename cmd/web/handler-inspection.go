package main

import (
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/form"
	"github.com/labqa/inspection/internal/schema"
	"github.com/labqa/inspection/internal/wizard"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

// renderedFieldsKey lists the keys of the fields rendered in the process form. Fields absent from the list keep
// their answers.
const renderedFieldsKey = "campos"

// multipartMemory is the part of a multipart body kept in memory. The rest is spooled to temporary files.
const multipartMemory = 8 << 20

// engineError maps wizard errors to responses. A stale page posting to the wrong step is sent back to the current
// step.
func (app *application) engineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, wizard.ErrWrongStep):
		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "stale wizard step", errors.SlogError(err))
		redirectHome(w, r)
	case errors.Is(err, form.ErrInvalidInput),
		errors.Is(err, wizard.ErrUnknownField),
		errors.Is(err, wizard.ErrComputedField),
		errors.Is(err, wizard.ErrNotSolutions):
		app.clientError(w, r, http.StatusBadRequest, err)
	default:
		app.serverError(w, r, err)
	}
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return errors.Wrap(form.ErrInvalidInput, "parse multipart form: "+err.Error())
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return errors.Wrap(form.ErrInvalidInput, "parse form: "+err.Error())
	}
	return nil
}

func (app *application) basicInfoPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := parseForm(r); err != nil {
		app.engineError(w, r, err)
		return
	}
	s := app.wizardSession(ctx)
	basicInfo := make(map[string]string)
	for _, f := range app.engine.Schema().InitialFields {
		basicInfo[f.Key] = r.PostForm.Get(f.Key)
	}
	if _, err := app.engine.SubmitBasicInfo(ctx, s, basicInfo, r.PostForm.Get("sector"),
		r.PostForm.Get("process")); err != nil {
		app.engineError(w, r, err)
		return
	}
	app.saveWizardSession(ctx, s)
	redirectHome(w, r)
}

func (app *application) selectionPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := parseForm(r); err != nil {
		app.engineError(w, r, err)
		return
	}
	s := app.wizardSession(ctx)
	if _, err := app.engine.SelectProcess(ctx, s, r.PostForm.Get("sector"), r.PostForm.Get("process")); err != nil {
		app.engineError(w, r, err)
		return
	}
	app.saveWizardSession(ctx, s)
	redirectHome(w, r)
}

// applyForm stores the posted answers of the rendered fields and the live fields of a solutions process.
func (app *application) applyForm(r *http.Request, s *wizard.Session) error {
	if err := parseForm(r); err != nil {
		return err
	}
	if s.Step != wizard.StepProcessForm {
		return errors.Wrap(wizard.ErrWrongStep, "apply form", slog.String("step", s.Step.String()))
	}
	_, process, ok := app.engine.Current(s)
	if !ok {
		return errors.Wrap(wizard.ErrUnknownField, "resolve process", slog.String("process", s.Record.ProcessName))
	}

	if process.IsSolutions() {
		prep, hasPrep := r.PostForm[schema.KeyPreparationDate]
		category, hasCategory := r.PostForm[schema.KeyCategory]
		if hasPrep || hasCategory {
			live := s.Live
			if hasPrep {
				live.PreparationDate = prep[0]
			}
			if hasCategory {
				live.Category = category[0]
			}
			if err := app.engine.SetLive(s, live.PreparationDate, live.Category); err != nil {
				return errors.Wrap(err, "set live fields")
			}
		}
	}

	for _, key := range r.PostForm[renderedFieldsKey] {
		f, found := process.FieldByKey(key)
		if !found {
			return errors.Wrap(wizard.ErrUnknownField, "apply form", slog.String("field", key))
		}
		if f.Type == schema.FieldMultiFile {
			files, err := uploadedFiles(r, key)
			if err != nil {
				return err
			}
			// Keep the earlier files unless new ones were chosen.
			if len(files) > 0 {
				if err = app.engine.SetAttachments(s, key, files); err != nil {
					return errors.Wrap(err, "set attachments")
				}
			}
			continue
		}
		v, err := form.ParseInput(f, r.PostForm[key])
		if err != nil {
			return errors.Wrap(err, "parse input")
		}
		if err = app.engine.SetResponse(s, key, v); err != nil {
			return errors.Wrap(err, "set response")
		}
	}
	return nil
}

func uploadedFiles(r *http.Request, key string) ([]form.Attachment, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[key]
	files := make([]form.Attachment, 0, len(headers))
	for _, fh := range headers {
		if fh.Filename == "" {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, errors.Wrap(err, "open uploaded file", slog.String("name", fh.Filename))
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, errors.Wrap(err, "read uploaded file", slog.String("name", fh.Filename))
		}
		files = append(files, form.Attachment{
			Name:        filepath.Base(fh.Filename),
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			StorageID:   "",
			Content:     content,
		})
	}
	return files, nil
}

// answersPost saves the form without submitting it so that conditional fields are re-evaluated.
func (app *application) answersPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := app.wizardSession(ctx)
	if err := app.applyForm(r, s); err != nil {
		app.engineError(w, r, err)
		return
	}
	app.saveWizardSession(ctx, s)
	redirectHome(w, r)
}

// livePost saves the form and, for htmx requests, responds with the re-rendered fields including the expiry.
func (app *application) livePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := app.wizardSession(ctx)
	if err := app.applyForm(r, s); err != nil {
		app.engineError(w, r, err)
		return
	}
	app.saveWizardSession(ctx, s)

	h := app.htmx.NewHandler(w, r)
	if !h.IsHxRequest() {
		redirectHome(w, r)
		return
	}
	app.renderFragment(w, r, "processform", "fields", app.processFormData(r, s))
}

func (app *application) submitPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := app.wizardSession(ctx)
	if err := app.applyForm(r, s); err != nil {
		app.engineError(w, r, err)
		return
	}
	if _, err := app.engine.Submit(ctx, s); err != nil {
		app.engineError(w, r, err)
		return
	}
	app.saveWizardSession(ctx, s)
	redirectHome(w, r)
}

func (app *application) backPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := app.wizardSession(ctx)
	app.engine.Back(s)
	app.saveWizardSession(ctx, s)
	redirectHome(w, r)
}

func (app *application) restartPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := app.wizardSession(ctx)
	app.engine.Restart(s)
	app.saveWizardSession(ctx, s)
	redirectHome(w, r)
}
