package validity_test

import (
	"encoding/json"
	"github.com/labqa/inspection/internal/validity"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

const rulesJSON = `{
	"Água Milli-Q": {"unidade": "dias", "valor": 1},
	"Tampão Fosfato": {"unidade": "meses", "valor": 3},
	"Padrão Analítico": {"unidade": "fabricante"},
	"Reagente Comercial": "Validade indicada no rótulo",
	"Solvente Orgânico": {"unidade": "dias", "valor": 30, "fabricante": true},
	"Indicador": {"unidade": "semanas", "valor": 2}
}`

func loadRules(t *testing.T) map[string]validity.Rule {
	t.Helper()
	var rules map[string]validity.Rule
	require.NoError(t, json.Unmarshal([]byte(rulesJSON), &rules))
	return rules
}

func TestComputeExpiry(t *testing.T) {
	rules := loadRules(t)
	tests := []struct {
		name     string
		prepDate string
		category string
		want     string
		wantOK   bool
	}{
		{name: "days", prepDate: "2024-01-01", category: "Água Milli-Q", want: "2024-01-02", wantOK: true},
		{name: "months are thirty days", prepDate: "2024-01-31", category: "Tampão Fosfato", want: "2024-04-30",
			wantOK: true},
		{name: "default seven days", prepDate: "2024-02-25", category: "Sem Regra", want: "2024-03-03", wantOK: true},
		{name: "manufacturer unit", prepDate: "2024-01-01", category: "Padrão Analítico",
			want: validity.DefaultPolicy, wantOK: true},
		{name: "policy text", prepDate: "2024-01-01", category: "Reagente Comercial",
			want: "Validade indicada no rótulo", wantOK: true},
		{name: "manufacturer flag overrides numeric rule", prepDate: "2024-01-01", category: "Solvente Orgânico",
			want: validity.DefaultPolicy, wantOK: true},
		{name: "manufacturer ignores invalid date", prepDate: "not a date", category: "Padrão Analítico",
			want: validity.DefaultPolicy, wantOK: true},
		{name: "empty date", prepDate: "", category: "Água Milli-Q", wantOK: false},
		{name: "unparseable date", prepDate: "01/02/2024", category: "Água Milli-Q", wantOK: false},
		{name: "unknown unit", prepDate: "2024-01-01", category: "Indicador", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := validity.ComputeExpiry(tt.prepDate, tt.category, rules)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestComputeExpiryDaysAndMonthsExact(t *testing.T) {
	start := time.Date(2023, time.December, 15, 0, 0, 0, 0, time.UTC)
	for amount := 0; amount <= 24; amount++ {
		rules := map[string]validity.Rule{
			"d": {Unit: validity.Days, Amount: amount},
			"m": {Unit: validity.Months, Amount: amount},
		}
		got, ok := validity.ComputeExpiry(start.Format(validity.DateLayout), "d", rules)
		require.True(t, ok)
		require.Equal(t, start.AddDate(0, 0, amount), got.Date)

		got, ok = validity.ComputeExpiry(start.Format(validity.DateLayout), "m", rules)
		require.True(t, ok)
		require.Equal(t, start.Add(time.Duration(amount*30)*24*time.Hour), got.Date)
	}
}

func TestDisplay(t *testing.T) {
	rules := loadRules(t)
	require.Equal(t, validity.PendingText, validity.Display("", "Água Milli-Q", rules))
	require.Equal(t, validity.PendingText, validity.Display("2024-01-01", "", rules))
	require.Equal(t, validity.ErrorText, validity.Display("2024-13-01", "Água Milli-Q", rules))
	require.Equal(t, "2024-01-02", validity.Display("2024-01-01", "Água Milli-Q", rules))
}

func TestRuleUnmarshalInvalid(t *testing.T) {
	var rule validity.Rule
	require.ErrorIs(t, json.Unmarshal([]byte(`{"unidade": "dias", "valor": "um"}`), &rule), validity.ErrInvalidRule)
}
