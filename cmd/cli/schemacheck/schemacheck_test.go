package schemacheck_test

import (
	"bytes"
	"github.com/labqa/inspection/cmd/cli/schemacheck"
	"github.com/labqa/inspection/internal/schema"
	"github.com/labqa/inspection/internal/testhelpers"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"testing"
)

const brokenSchema = `{
  "informacoes_iniciais": [],
  "setores_inspecao": [
    {"key": "lab", "nome": "Lab", "processos": [
      {"key": "p", "nome": "P", "campos": [
        {"key": "a", "label": "A", "tipo": "selecao", "opcoes": []},
        {"key": "b", "label": "B", "tipo": "texto", "condicional": {"campo": "zzz", "valor": "x"}}
      ]}
    ]}
  ]
}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "test", SilenceUsage: true, SilenceErrors: true}
	root.AddGroup(schemacheck.Group)
	root.AddCommand(schemacheck.Check)
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheckYAML(t *testing.T) {
	path := testhelpers.WriteSchemaFile(t)
	out, err := execute(t, "check", path, "--output", "yaml", "--strict=false")
	require.NoError(t, err)

	var got struct {
		Sectors     int                 `yaml:"sectors"`
		Processes   int                 `yaml:"processes"`
		Fields      int                 `yaml:"fields"`
		Rules       int                 `yaml:"rules"`
		Diagnostics []schema.Diagnostic `yaml:"diagnostics"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Equal(t, 2, got.Sectors)
	require.Equal(t, 3, got.Processes)
	require.Equal(t, 14, got.Fields)
	require.Equal(t, 4, got.Rules)
	require.Empty(t, got.Diagnostics)
}

func TestCheckBrokenSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(brokenSchema), 0o600))

	out, err := execute(t, "check", path, "--output", "text", "--strict=false")
	require.NoError(t, err)
	require.Contains(t, out, string(schema.ProblemEmptyOptions))
	require.Contains(t, out, string(schema.ProblemDanglingCondition))

	_, err = execute(t, "check", path, "--strict")
	require.ErrorIs(t, err, schemacheck.ErrProblems)
}

func TestCheckErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing file", args: []string{"check", filepath.Join(t.TempDir(), "missing.json")}},
		{name: "unknown output", args: []string{"check", testhelpers.WriteSchemaFile(t), "--output", "xml"}},
		{name: "no argument", args: []string{"check"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
		})
	}
}
