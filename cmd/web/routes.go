package main

import (
	"github.com/justinas/alice"
	"net/http"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	session := alice.New(app.sessionManager.LoadAndSave, app.limitRequestBody, noSurf, commonContext)

	mux.Handle("GET /{$}", session.ThenFunc(app.home))
	mux.Handle("POST /inspection/basic-info", session.ThenFunc(app.basicInfoPost))
	mux.Handle("POST /inspection/selection", session.ThenFunc(app.selectionPost))
	mux.Handle("POST /inspection/answers", session.ThenFunc(app.answersPost))
	mux.Handle("POST /inspection/live", session.ThenFunc(app.livePost))
	mux.Handle("POST /inspection/submit", session.ThenFunc(app.submitPost))
	mux.Handle("POST /inspection/back", session.ThenFunc(app.backPost))
	mux.Handle("POST /inspection/restart", session.ThenFunc(app.restartPost))
	mux.Handle("GET /inspection/export", session.ThenFunc(app.inspectionExport))
	mux.Handle("GET /history", session.ThenFunc(app.history))
	mux.Handle("GET /history/export", session.ThenFunc(app.historyExport))
	mux.Handle("GET /attachments/{id}", session.ThenFunc(app.attachment))

	mux.HandleFunc("GET /api/healthy", app.healthy)

	return app.recoverPanic(app.logRequest(app.secureHeaders(mux)))
}
