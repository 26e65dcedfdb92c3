// Package flatten turns answer records into flat rows with a fixed set of leading header columns followed by one
// column per answer and per attachment group. The same rows feed the single-record report, the session history export
// and the persisted history.
package flatten

import (
	"github.com/labqa/inspection/internal/form"
	"github.com/labqa/inspection/internal/schema"
	"slices"
	"sort"
	"strings"
)

// Header columns in their fixed order.
const (
	ColumnSubmittedAt    = "Data/Hora da Submissão"
	ColumnInspector      = "Nome do Inspetor"
	ColumnEmail          = "Email do Inspetor"
	ColumnCompany        = "Empresa Inspecionada"
	ColumnInspectionDate = "Data da Inspeção (Preenchida)"
	ColumnSector         = "Setor Inspecionado"
	ColumnProcess        = "Processo Inspecionado"
)

const (
	// EvidencePrefix starts the column names of attachment groups. Its value wins over a response labelled the same.
	EvidencePrefix = schema.EvidencePrefix
	// TimestampLayout formats the submission time.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Basic-information keys read into the header columns.
const (
	KeyInspector      = "nome_inspetor"
	KeyEmail          = "email_inspetor"
	KeyCompany        = "empresa_inspecionada"
	KeyInspectionDate = "data_inspecao"
)

var headerColumns = []string{
	ColumnSubmittedAt,
	ColumnInspector,
	ColumnEmail,
	ColumnCompany,
	ColumnInspectionDate,
	ColumnSector,
	ColumnProcess,
}

// HeaderColumns returns the header columns in order.
func HeaderColumns() []string {
	return slices.Clone(headerColumns)
}

func isHeader(column string) bool {
	return slices.Contains(headerColumns, column)
}

// Flatten converts record into a row. The header columns come first, the remaining columns are sorted. A response
// whose label equals a header column overwrites the header value but keeps the header position.
//
// Flatten is deterministic: the same record always produces an equal row.
func Flatten(record form.Record) Row {
	values := map[string]string{
		ColumnSubmittedAt:    record.SubmittedAt.Format(TimestampLayout),
		ColumnInspector:      record.BasicInfo[KeyInspector],
		ColumnEmail:          record.BasicInfo[KeyEmail],
		ColumnCompany:        record.BasicInfo[KeyCompany],
		ColumnInspectionDate: record.BasicInfo[KeyInspectionDate],
		ColumnSector:         record.SectorName,
		ColumnProcess:        record.ProcessName,
	}
	extra := make([]string, 0, len(record.Answers.Responses)+len(record.Answers.Attachments))
	add := func(column, value string) {
		if !isHeader(column) {
			extra = append(extra, column)
		}
		values[column] = value
	}
	for label, v := range record.Answers.Responses {
		add(label, v.String())
	}
	for label, files := range record.Answers.Attachments {
		add(EvidencePrefix+label, strings.Join(form.Names(files), form.ListSeparator))
	}
	sort.Strings(extra)
	extra = slices.Compact(extra)

	return Row{
		Columns: append(HeaderColumns(), extra...),
		Values:  values,
	}
}

// Table is a set of rows sharing one column list. Missing cells are empty strings.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Union builds the table of rows: header columns first, then every other column of any row in sorted order.
func Union(rows []Row) Table {
	seen := make(map[string]struct{})
	var extra []string
	for _, row := range rows {
		for _, c := range row.Columns {
			if isHeader(c) {
				continue
			}
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				extra = append(extra, c)
			}
		}
	}
	sort.Strings(extra)

	t := Table{
		Columns: append(HeaderColumns(), extra...),
		Rows:    make([][]string, len(rows)),
	}
	for i, row := range rows {
		t.Rows[i] = row.Cells(t.Columns)
	}
	return t
}
