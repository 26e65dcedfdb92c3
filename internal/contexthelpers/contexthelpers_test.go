package contexthelpers_test

import (
	"github.com/labqa/inspection/internal/contexthelpers"
	"github.com/stretchr/testify/require"
	"net/http/httptest"
	"testing"
)

func TestSettersAndGetters(t *testing.T) {
	r := httptest.NewRequest("GET", "/history", nil)
	ctx := r.Context()
	require.Empty(t, contexthelpers.CurrentPath(ctx))
	require.Empty(t, contexthelpers.CSRFToken(ctx))
	require.Empty(t, contexthelpers.CSPNonce(ctx))
	require.Empty(t, contexthelpers.RequestID(ctx))

	r = contexthelpers.SetCurrentPath(r, "/history")
	r = contexthelpers.SetCSRFToken(r, "token")
	r = contexthelpers.SetCSPNonce(r, "nonce")
	r = contexthelpers.SetRequestID(r, "id")
	ctx = r.Context()
	require.Equal(t, "/history", contexthelpers.CurrentPath(ctx))
	require.Equal(t, "token", contexthelpers.CSRFToken(ctx))
	require.Equal(t, "nonce", contexthelpers.CSPNonce(ctx))
	require.Equal(t, "id", contexthelpers.RequestID(ctx))
}
