package main

import (
	"github.com/labqa/inspection/internal/wizard"
	"net/http"
)

// home renders the current wizard step.
func (app *application) home(w http.ResponseWriter, r *http.Request) {
	s := app.wizardSession(r.Context())
	switch s.Step {
	case wizard.StepBasicInfo:
		app.render(w, r, http.StatusOK, "basicinfo", app.basicInfoData(r, s))
	case wizard.StepSelection:
		app.render(w, r, http.StatusOK, "selection", app.selectionData(r, s))
	case wizard.StepProcessForm:
		app.render(w, r, http.StatusOK, "processform", app.processFormData(r, s))
	case wizard.StepCompletion:
		app.render(w, r, http.StatusOK, "completion", app.completionData(r, s))
	}
}
