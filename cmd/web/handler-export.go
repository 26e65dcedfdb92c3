package main

import (
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/export"
	"github.com/labqa/inspection/internal/flatten"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
)

// exportTimestampLayout is used in download file names.
const exportTimestampLayout = "20060102_150405"

// inspectionExport downloads the last submitted inspection.
func (app *application) inspectionExport(w http.ResponseWriter, r *http.Request) {
	s := app.wizardSession(r.Context())
	if s.Last == nil {
		app.notFound(w, r)
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}
	base := "inspecao_" + s.Last.ProcessKey + "_" + s.Last.SubmittedAt.Format(exportTimestampLayout)
	app.writeExport(w, r, format, base, []flatten.Row{flatten.Flatten(*s.Last)})
}

// historyExport downloads the session history or, with scope=all, every stored inspection.
func (app *application) historyExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}
	var rows []flatten.Row
	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "session":
		rows = app.wizardSession(ctx).HistoryRows()
	case "all":
		if rows, err = app.inspections.ReadAllRecords(ctx); err != nil {
			app.serverError(w, r, errors.Wrap(err, "read all records"))
			return
		}
	default:
		app.clientError(w, r, http.StatusBadRequest, errors.New("unknown scope", slog.String("scope", scope)))
		return
	}
	app.writeExport(w, r, format, "historico_inspecoes", rows)
}

func (app *application) writeExport(
	w http.ResponseWriter,
	r *http.Request,
	format export.Format,
	base string,
	rows []flatten.Row,
) {
	content, err := export.Rows(format, rows)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "export rows", slog.String("format", string(format))))
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": format.Filename(base)}))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	_, _ = w.Write(content)
}
