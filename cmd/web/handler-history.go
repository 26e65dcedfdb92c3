package main

import (
	"github.com/labqa/inspection/internal/errors"
	"net/http"
)

func (app *application) history(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := app.wizardSession(ctx)
	data, err := app.historyData(ctx, r, s)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "history data"))
		return
	}
	app.render(w, r, http.StatusOK, "history", data)
}
