package flatten_test

import (
	"encoding/json"
	"github.com/google/go-cmp/cmp"
	"github.com/labqa/inspection/internal/flatten"
	"github.com/labqa/inspection/internal/form"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func sampleRecord() form.Record {
	return form.Record{
		BasicInfo: map[string]string{
			flatten.KeyInspector:      "Ana",
			flatten.KeyEmail:          "ana@labqa.example",
			flatten.KeyCompany:        "LabQA",
			flatten.KeyInspectionDate: "2024-01-01",
		},
		SectorKey:   "laboratorio",
		SectorName:  "Labs",
		ProcessKey:  "recepcao_amostras",
		ProcessName: "Recepção de Amostras",
		Answers: form.Answers{
			Responses: map[string]form.Value{
				"Tipo Amostra":           form.List([]string{"Triagem", "Confirmatório THC"}),
				"Quantidade de Amostras": form.Number(4),
				"Lacre Íntegro":          form.Text("Não"),
				"Itens Verificados":      form.List(nil),
			},
			Attachments: map[string][]form.Attachment{
				"Fotos do Lacre": {{Name: "frente.jpg"}, {Name: "verso.jpg"}},
			},
		},
		SubmittedAt: time.Date(2024, time.January, 1, 14, 30, 5, 0, time.UTC),
	}
}

func TestFlatten(t *testing.T) {
	row := flatten.Flatten(sampleRecord())

	wantColumns := []string{
		flatten.ColumnSubmittedAt,
		flatten.ColumnInspector,
		flatten.ColumnEmail,
		flatten.ColumnCompany,
		flatten.ColumnInspectionDate,
		flatten.ColumnSector,
		flatten.ColumnProcess,
		"Evidence: Fotos do Lacre",
		"Itens Verificados",
		"Lacre Íntegro",
		"Quantidade de Amostras",
		"Tipo Amostra",
	}
	if diff := cmp.Diff(wantColumns, row.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}

	wantValues := map[string]string{
		flatten.ColumnSubmittedAt:    "2024-01-01 14:30:05",
		flatten.ColumnInspector:      "Ana",
		flatten.ColumnEmail:          "ana@labqa.example",
		flatten.ColumnCompany:        "LabQA",
		flatten.ColumnInspectionDate: "2024-01-01",
		flatten.ColumnSector:         "Labs",
		flatten.ColumnProcess:        "Recepção de Amostras",
		"Evidence: Fotos do Lacre":   "frente.jpg, verso.jpg",
		"Itens Verificados":          "",
		"Lacre Íntegro":              "Não",
		"Quantidade de Amostras":     "4",
		"Tipo Amostra":               "Triagem, Confirmatório THC",
	}
	if diff := cmp.Diff(wantValues, row.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenIsDeterministic(t *testing.T) {
	first, err := json.Marshal(flatten.Flatten(sampleRecord()))
	require.NoError(t, err)
	for range 20 {
		again, err := json.Marshal(flatten.Flatten(sampleRecord()))
		require.NoError(t, err)
		require.Equal(t, string(first), string(again))
	}
}

func TestFlattenHeaderCollision(t *testing.T) {
	record := sampleRecord()
	record.Answers.Responses = map[string]form.Value{flatten.ColumnCompany: form.Text("Outra")}
	record.Answers.Attachments = nil

	row := flatten.Flatten(record)
	require.Equal(t, flatten.HeaderColumns(), row.Columns)
	require.Equal(t, "Outra", row.Get(flatten.ColumnCompany))
}

func TestFlattenEvidenceCollision(t *testing.T) {
	record := sampleRecord()
	record.Answers.Responses = map[string]form.Value{
		flatten.EvidencePrefix + "Fotos do Lacre": form.Text("resposta"),
	}

	for range 10 {
		row := flatten.Flatten(record)
		require.Equal(t, append(flatten.HeaderColumns(), "Evidence: Fotos do Lacre"), row.Columns)
		require.Equal(t, "frente.jpg, verso.jpg", row.Get("Evidence: Fotos do Lacre"))
	}
}

func TestUnion(t *testing.T) {
	a := flatten.Flatten(sampleRecord())

	other := sampleRecord()
	other.ProcessName = "Arquivo"
	other.Answers = form.Answers{Responses: map[string]form.Value{"Caixa": form.Text("12")}}
	b := flatten.Flatten(other)

	table := flatten.Union([]flatten.Row{a, b})
	want := append(flatten.HeaderColumns(),
		"Caixa",
		"Evidence: Fotos do Lacre",
		"Itens Verificados",
		"Lacre Íntegro",
		"Quantidade de Amostras",
		"Tipo Amostra",
	)
	if diff := cmp.Diff(want, table.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, table.Rows, 2)
	for _, cells := range table.Rows {
		require.Len(t, cells, len(want))
	}
	require.Equal(t, "", table.Rows[0][7])
	require.Equal(t, "12", table.Rows[1][7])
	require.Equal(t, "Triagem, Confirmatório THC", table.Rows[0][12])
	require.Equal(t, "", table.Rows[1][12])
}

func TestUnionEmpty(t *testing.T) {
	table := flatten.Union(nil)
	require.Equal(t, flatten.HeaderColumns(), table.Columns)
	require.Empty(t, table.Rows)
}

func TestRowJSONKeepsColumnOrder(t *testing.T) {
	row := flatten.Flatten(sampleRecord())
	b, err := json.Marshal(row)
	require.NoError(t, err)

	var decoded flatten.Row
	require.NoError(t, json.Unmarshal(b, &decoded))
	if diff := cmp.Diff(row, decoded); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}

	require.Error(t, json.Unmarshal([]byte(`["a"]`), &decoded))
}
