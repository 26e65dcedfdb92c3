package main

import (
	"context"
	"encoding/gob"
	"github.com/labqa/inspection/internal/wizard"
)

func init() {
	gob.Register(&wizard.Session{})
}

type sessionKey string

const wizardSessionKey = sessionKey("wizard")

// wizardSession returns the wizard state of the visitor, or a fresh one.
func (app *application) wizardSession(ctx context.Context) *wizard.Session {
	s, ok := app.sessionManager.Get(ctx, string(wizardSessionKey)).(*wizard.Session)
	if !ok || s == nil {
		return wizard.NewSession()
	}
	return s
}

func (app *application) saveWizardSession(ctx context.Context, s *wizard.Session) {
	app.sessionManager.Put(ctx, string(wizardSessionKey), s)
}
