package main

import (
	"encoding/json"
	"github.com/labqa/inspection/internal/errors"
	"net/http"
)

type healthResponse struct {
	Status  string `json:"status"`
	Records int    `json:"records"`
}

// healthy responds with a JSON object indicating that the server and its database are healthy.
func (app *application) healthy(w http.ResponseWriter, r *http.Request) {
	count, err := app.inspections.CountRecords(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "count records"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Records: count})
}
