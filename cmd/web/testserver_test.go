package main

import (
	"context"
	"github.com/labqa/inspection/internal/e2etest"
	"github.com/labqa/inspection/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
)

func testLookupEnv(t *testing.T) func(string) (string, bool) {
	t.Helper()
	schemaPath := testhelpers.WriteSchemaFile(t)
	return func(key string) (string, bool) {
		switch key {
		case "INSPECTION_ADDR":
			return "localhost:0", true
		case "INSPECTION_SQLITE_URL":
			return ":memory:", true
		case "INSPECTION_SCHEMA_PATH":
			return schemaPath, true
		default:
			return "", false
		}
	}
}

// startTestServer starts the application on a random port. The server stops when the test ends.
func startTestServer(t *testing.T, logSink io.Writer) *e2etest.Server {
	t.Helper()
	server, err := e2etest.StartServer(context.Background(), logSink, testLookupEnv(t), run)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, server.Stop())
	})
	return server
}
