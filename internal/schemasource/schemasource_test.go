package schemasource_test

import (
	"bytes"
	"context"
	"github.com/labqa/inspection/internal/schema"
	"github.com/labqa/inspection/internal/schemasource"
	"github.com/labqa/inspection/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFetch(t *testing.T) {
	remote := []byte(`{"informacoes_iniciais": [], "setores_inspecao": []}`)
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(remote)
	}))
	t.Cleanup(ok.Close)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	t.Cleanup(broken.Close)

	localPath := testhelpers.WriteSchemaFile(t)
	missingPath := filepath.Join(t.TempDir(), "missing.json")

	tests := []struct {
		name    string
		url     string
		path    string
		want    []byte
		wantErr bool
	}{
		{name: "remote wins", url: ok.URL, path: localPath, want: remote},
		{name: "fallback on status", url: broken.URL, path: localPath, want: testhelpers.SchemaJSON},
		{name: "local only", path: localPath, want: testhelpers.SchemaJSON},
		{name: "nothing available", url: broken.URL, path: missingPath, wantErr: true},
		{name: "no source configured", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			got, err := schemasource.Fetch(context.Background(), ok.Client(), tt.url, tt.path,
				testhelpers.NewLogger(&logs))
			if tt.wantErr {
				require.ErrorIs(t, err, schemasource.ErrNoSource)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	valid := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"informacoes_iniciais": [], "setores_inspecao": []}`))
	}))
	t.Cleanup(valid.Close)
	login := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>login page</html>"))
	}))
	t.Cleanup(login.Close)

	localPath := testhelpers.WriteSchemaFile(t)
	brokenPath := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, writeFile(brokenPath, `{"setores_inspecao": []}`))

	tests := []struct {
		name        string
		url         string
		path        string
		wantSectors int
		wantErrs    []error
	}{
		{name: "local only", path: localPath, wantSectors: 2},
		{name: "remote wins", url: valid.URL, path: localPath, wantSectors: 0},
		{name: "malformed remote falls back to local", url: login.URL, path: localPath, wantSectors: 2},
		{name: "malformed local", path: brokenPath, wantErrs: []error{schema.ErrSchema, schemasource.ErrNoSource}},
		{name: "malformed remote and local", url: login.URL, path: brokenPath,
			wantErrs: []error{schema.ErrSchema, schemasource.ErrNoSource}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := schemasource.Load(context.Background(), valid.Client(), tt.url, tt.path,
				testhelpers.NewLogger(io.Discard))
			if len(tt.wantErrs) > 0 {
				for _, want := range tt.wantErrs {
					require.ErrorIs(t, err, want)
				}
				require.Nil(t, s)
				return
			}
			require.NoError(t, err)
			require.Len(t, s.Sectors, tt.wantSectors)
		})
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
