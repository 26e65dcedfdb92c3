package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"github.com/PuerkitoBio/goquery"
	"github.com/labqa/inspection/internal/e2etest"
	"github.com/labqa/inspection/internal/validity"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

func texts(sel *goquery.Selection) []string {
	return sel.Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	})
}

// cell returns the value shown for column in the completion record table.
func cell(doc *goquery.Document, column string) string {
	return strings.TrimSpace(doc.Find("table.record tr").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Find("th").Text()) == column
	}).Find("td").Text())
}

func basicInfo(sector, process string) url.Values {
	return url.Values{
		"nome_inspetor":        {"Ana Souza"},
		"email_inspetor":       {"ana@example.com"},
		"empresa_inspecionada": {"LabQA"},
		"data_inspecao":        {"2024-05-02"},
		"sector":               {sector},
		"process":              {process},
	}
}

// openProcess walks the client from the basic-information step to the process form.
func openProcess(ctx context.Context, t *testing.T, client *e2etest.Client, sector, process string) *goquery.Document {
	t.Helper()
	doc, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)
	doc, err = client.SubmitForm(ctx, doc, "/inspection/basic-info", basicInfo(sector, process))
	require.NoError(t, err)
	doc, err = client.SubmitForm(ctx, doc, "/inspection/selection", url.Values{
		"sector":  {sector},
		"process": {process},
	})
	require.NoError(t, err)
	require.Equal(t, process, strings.TrimSpace(doc.Find("main h1").Text()))
	return doc
}

func Test_application_basicInfoGuard(t *testing.T) {
	ctx := context.Background()
	server := startTestServer(t, io.Discard)
	client := server.Client()

	doc, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)
	require.Equal(t, "basic-info", doc.Find("main").AttrOr("data-step", ""))

	doc, err = client.SubmitForm(ctx, doc, "/inspection/basic-info", url.Values{"nome_inspetor": {"Ana Souza"}})
	require.NoError(t, err)
	require.Equal(t, []string{
		"Empresa Inspecionada",
		"Data da Inspeção",
		"Setor Inspecionado",
		"Processo a ser Inspecionado",
	}, texts(doc.Find(".missing li")))
	require.Equal(t, "Ana Souza", doc.Find("#b-nome_inspetor").AttrOr("value", ""))

	doc, err = client.SubmitForm(ctx, doc, "/inspection/basic-info", basicInfo("Labs", "Recepção de Amostras"))
	require.NoError(t, err)
	require.Equal(t, "selection", doc.Find("main").AttrOr("data-step", ""))
	require.Empty(t, texts(doc.Find(".missing li")))
	require.Equal(t, "Labs", strings.TrimSpace(doc.Find("#sector option[selected]").Text()))
	require.Equal(t, "Recepção de Amostras", strings.TrimSpace(doc.Find("#process option[selected]").Text()))

	doc, err = client.SubmitForm(ctx, doc, "/inspection/selection", url.Values{
		"sector":  {"Labs"},
		"process": {"Arquivo"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Processo a ser Inspecionado"}, texts(doc.Find(".missing li")))
}

func Test_application_sampleReception(t *testing.T) {
	ctx := context.Background()
	server := startTestServer(t, io.Discard)
	client := server.Client()

	doc := openProcess(ctx, t, client, "Labs", "Recepção de Amostras")
	require.Equal(t, 1, doc.Find("[data-field='lacre_integro']").Length())
	require.Equal(t, 0, doc.Find("[data-field='lacre_observacao']").Length())
	require.Equal(t, 0, doc.Find("[data-field='evidencias']").Length())
	require.Equal(t, 0, doc.Find("fieldset.live").Length())

	fragment, err := client.SubmitHTMX(ctx, doc, "/inspection/submit", "/inspection/live", url.Values{
		"campos":        {"lacre_integro"},
		"lacre_integro": {"Não"},
	})
	require.NoError(t, err)
	require.Equal(t, 0, fragment.Find("nav").Length())
	require.Equal(t, 1, fragment.Find("[data-field='lacre_observacao']").Length())
	require.Equal(t, 1, fragment.Find("[data-field='evidencias']").Length())

	doc, err = client.GetDoc(ctx, "/")
	require.NoError(t, err)
	answers := url.Values{
		"campos": {"tipo_amostra", "quantidade", "lacre_integro", "lacre_observacao", "itens_verificados",
			"evidencias"},
		"tipo_amostra":      {"Triagem", "Confirmatório THC"},
		"quantidade":        {"3"},
		"lacre_integro":     {"Não"},
		"lacre_observacao":  {""},
		"itens_verificados": {"Etiqueta"},
	}
	doc, err = client.SubmitMultipartForm(ctx, doc, "/inspection/submit", answers, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Observação do Lacre", "Fotos do Lacre"}, texts(doc.Find(".missing li")))
	require.Equal(t, "process-form", doc.Find("main").AttrOr("data-step", ""))

	answers.Set("lacre_observacao", "Lacre rompido no transporte")
	photo := []byte("\xff\xd8\xff\xe0 fake jpeg")
	doc, err = client.SubmitMultipartForm(ctx, doc, "/inspection/submit", answers, map[string][]e2etest.File{
		"evidencias": {{Name: "lacre.jpg", Content: photo}},
	})
	require.NoError(t, err)
	require.Equal(t, "completion", doc.Find("main").AttrOr("data-step", ""))
	require.Equal(t, 0, doc.Find(".warnings").Length())
	require.Equal(t, "Ana Souza", cell(doc, "Nome do Inspetor"))
	require.Equal(t, "Recepção de Amostras", cell(doc, "Processo Inspecionado"))
	require.Equal(t, "Triagem, Confirmatório THC", cell(doc, "Tipo Amostra"))
	require.Equal(t, "3", cell(doc, "Quantidade de Amostras"))
	require.Equal(t, "Lacre rompido no transporte", cell(doc, "Observação do Lacre"))
	require.Equal(t, "lacre.jpg", cell(doc, "Evidence: Fotos do Lacre"))

	href, ok := doc.Find(".attachments a").Attr("href")
	require.True(t, ok)
	content, contentType, err := client.Download(ctx, href)
	require.NoError(t, err)
	require.Equal(t, photo, content)
	require.Equal(t, "image/jpeg", contentType)

	content, contentType, err = client.Download(ctx, "/inspection/export?format=csv")
	require.NoError(t, err)
	require.Equal(t, "text/csv; charset=utf-8", contentType)
	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Data/Hora da Submissão", records[0][0])
	_, err = time.Parse("2006-01-02 15:04:05", records[1][0])
	require.NoError(t, err)

	// Going back restores the submitted answers.
	doc, err = client.SubmitForm(ctx, doc, "/inspection/back", nil)
	require.NoError(t, err)
	require.Equal(t, "process-form", doc.Find("main").AttrOr("data-step", ""))
	require.Equal(t, "Lacre rompido no transporte", strings.TrimSpace(doc.Find("#f-lacre_observacao").Text()))
	require.Equal(t, []string{"lacre.jpg"}, texts(doc.Find("[data-field='evidencias'] .files li")))

	doc, err = client.GetDoc(ctx, "/history")
	require.NoError(t, err)
	require.Equal(t, "1", doc.Find("#session-count").Text())
	require.Equal(t, "1", doc.Find("#stored-count").Text())

	content, _, err = client.Download(ctx, "/history/export?scope=all&format=csv")
	require.NoError(t, err)
	records, err = csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	content, contentType, err = client.Download(ctx, "/history/export?scope=session&format=xlsx")
	require.NoError(t, err)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", contentType)
	require.NotEmpty(t, content)

	// A new session starts with an empty history while the stored records remain.
	require.NoError(t, client.ResetSession())
	doc, err = client.GetDoc(ctx, "/history")
	require.NoError(t, err)
	require.Equal(t, "0", doc.Find("#session-count").Text())
	require.Equal(t, "1", doc.Find("#stored-count").Text())
}

func Test_application_solutionsExpiry(t *testing.T) {
	ctx := context.Background()
	server := startTestServer(t, io.Discard)
	client := server.Client()

	doc := openProcess(ctx, t, client, "Labs", "Soluções")
	require.Equal(t, 1, doc.Find("fieldset.live").Length())
	require.Equal(t, "Água Milli-Q",
		strings.TrimSpace(doc.Find("#f-solucao_tipo option[selected]").Text()))
	require.NotEmpty(t, doc.Find("#f-solucao_data_preparo").AttrOr("value", ""))
	require.NotEqual(t, validity.PendingText, doc.Find("#expiry").Text())
	require.Equal(t, 0, doc.Find("[data-field='solvente_ficha']").Length())

	tests := []struct {
		name       string
		category   string
		wantExpiry string
		wantSafety int
	}{
		{name: "months", category: "Tampão Fosfato", wantExpiry: "2024-03-31", wantSafety: 0},
		{name: "conditional on category", category: "Solvente Orgânico", wantExpiry: "2024-06-29", wantSafety: 1},
		{name: "manufacturer", category: "Padrão Analítico", wantExpiry: validity.DefaultPolicy, wantSafety: 0},
		{name: "pending", category: "", wantExpiry: validity.PendingText, wantSafety: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragment, err := client.SubmitHTMX(ctx, doc, "/inspection/submit", "/inspection/live", url.Values{
				"solucao_data_preparo": {"2024-01-01"},
				"solucao_tipo":         {tt.category},
			})
			require.NoError(t, err)
			require.Equal(t, tt.wantExpiry, fragment.Find("#expiry").Text())
			require.Equal(t, tt.wantSafety, fragment.Find("[data-field='solvente_ficha']").Length())
		})
	}

	doc, err := client.SubmitMultipartForm(ctx, doc, "/inspection/submit", url.Values{
		"solucao_data_preparo": {"2024-01-01"},
		"solucao_tipo":         {"Solvente Orgânico"},
		"campos":               {"solucao_codigo", "solvente_ficha", "solucao_observacoes"},
		"solucao_codigo":       {"SOL-042"},
		"solvente_ficha":       {"Sim"},
		"solucao_observacoes":  {""},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "completion", doc.Find("main").AttrOr("data-step", ""))
	require.Equal(t, "2024-01-01", cell(doc, "Data de Preparo"))
	require.Equal(t, "Solvente Orgânico", cell(doc, "Tipo de Solução"))
	require.Equal(t, "2024-06-29", cell(doc, "Data de Validade"))
	require.Equal(t, "Sim", cell(doc, "Ficha de Segurança Verificada"))

	doc, err = client.SubmitForm(ctx, doc, "/inspection/restart", nil)
	require.NoError(t, err)
	require.Equal(t, "basic-info", doc.Find("main").AttrOr("data-step", ""))

	doc, err = client.GetDoc(ctx, "/history")
	require.NoError(t, err)
	require.Equal(t, "1", doc.Find("#session-count").Text())
}

func Test_application_errors(t *testing.T) {
	ctx := context.Background()
	server := startTestServer(t, io.Discard)
	client := server.Client()

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "no submitted inspection", path: "/inspection/export?format=csv", wantStatus: http.StatusNotFound},
		{name: "unknown attachment", path: "/attachments/does-not-exist", wantStatus: http.StatusNotFound},
		{name: "unknown format", path: "/history/export?format=pdf", wantStatus: http.StatusBadRequest},
		{name: "unknown scope", path: "/history/export?scope=everything", wantStatus: http.StatusBadRequest},
		{name: "unknown page", path: "/nowhere", wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Get(ctx, tt.path)
			require.NoError(t, err)
			require.NoError(t, resp.Body.Close())
			require.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	t.Run("missing csrf token", func(t *testing.T) {
		resp, err := http.PostForm(server.URL()+"/inspection/restart", url.Values{})
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("stale step redirects home", func(t *testing.T) {
		doc, err := client.GetDoc(ctx, "/")
		require.NoError(t, err)
		// The basic-information page has no process form. Reuse its token for a submit.
		doc.Find("form").First().SetAttr("action", "/inspection/submit")
		doc, err = client.SubmitForm(ctx, doc, "/inspection/submit", nil)
		require.NoError(t, err)
		require.Equal(t, "basic-info", doc.Find("main").AttrOr("data-step", ""))
	})
}

func Test_application_healthy(t *testing.T) {
	ctx := context.Background()
	server := startTestServer(t, io.Discard)

	content, contentType, err := server.Client().Download(ctx, "/api/healthy")
	require.NoError(t, err)
	require.Equal(t, "application/json", contentType)
	require.JSONEq(t, `{"status":"ok","records":0}`, string(content))
}
