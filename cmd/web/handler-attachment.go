package main

import (
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/repositories"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// attachment serves a stored evidence file. Only images and PDFs are shown inline.
func (app *application) attachment(w http.ResponseWriter, r *http.Request) {
	a, err := app.inspections.GetAttachment(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			app.notFound(w, r)
			return
		}
		app.serverError(w, r, errors.Wrap(err, "get attachment"))
		return
	}
	disposition := "attachment"
	if strings.HasPrefix(a.ContentType, "image/") || a.ContentType == "application/pdf" {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": a.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Content)))
	_, _ = w.Write(a.Content)
}
