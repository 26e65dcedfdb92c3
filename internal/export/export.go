// Package export writes flat rows as CSV or XLSX tables.
package export

import (
	"bytes"
	"encoding/csv"
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/flatten"
	"github.com/xuri/excelize/v2"
	"log/slog"
)

// Format of an exported table.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SheetName is the worksheet holding the rows of an XLSX export.
const SheetName = "Inspeções"

var ErrUnknownFormat = errors.NewSentinel("unknown export format")

// ParseFormat accepts "csv" and "xlsx". An empty string selects XLSX.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "":
		return FormatXLSX, nil
	}
	return "", errors.Wrap(ErrUnknownFormat, "parse format", slog.String("format", s))
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Filename returns base with the extension of f.
func (f Format) Filename(base string) string {
	return base + "." + string(f)
}

// Rows renders rows in format f. The table columns are the union of the row columns.
func Rows(f Format, rows []flatten.Row) ([]byte, error) {
	switch f {
	case FormatCSV:
		return CSV(rows)
	case FormatXLSX:
		return XLSX(rows)
	}
	return nil, errors.Wrap(ErrUnknownFormat, "export rows", slog.String("format", string(f)))
}

// CSV renders rows as comma separated values with a header line.
func CSV(rows []flatten.Row) ([]byte, error) {
	table := flatten.Union(rows)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Columns); err != nil {
		return nil, errors.Wrap(err, "write csv header")
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return nil, errors.Wrap(err, "write csv rows")
	}
	return buf.Bytes(), nil
}

// XLSX renders rows as a workbook with one worksheet named [SheetName]. The header row is bold.
func XLSX(rows []flatten.Row) (_ []byte, err error) {
	table := flatten.Union(rows)
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			err = errors.Join(err, errors.Wrap(closeErr, "close workbook"))
		}
	}()

	if err = f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, errors.Wrap(err, "rename sheet")
	}
	if err = setRow(f, 1, table.Columns); err != nil {
		return nil, err
	}
	for i, cells := range table.Rows {
		if err = setRow(f, i+2, cells); err != nil {
			return nil, err
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "create header style")
	}
	if err = f.SetRowStyle(SheetName, 1, 1, style); err != nil {
		return nil, errors.Wrap(err, "style header")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, "cell name", slog.Int("row", row))
	}
	if err = f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return errors.Wrap(err, "set row", slog.Int("row", row))
	}
	return nil
}
