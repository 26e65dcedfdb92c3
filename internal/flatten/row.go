package flatten

import (
	"bytes"
	"encoding/json"
	"github.com/labqa/inspection/internal/errors"
)

// Row is a flat record. Columns holds the column order and Values the cells.
type Row struct {
	Columns []string
	Values  map[string]string
}

// Get returns the cell of column or an empty string.
func (r Row) Get(column string) string {
	return r.Values[column]
}

// Cells returns the cells of r in the order of columns.
func (r Row) Cells(columns []string) []string {
	cells := make([]string, len(columns))
	for i, c := range columns {
		cells[i] = r.Values[c]
	}
	return cells
}

// MarshalJSON encodes the row as a JSON object with the keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, errors.Wrap(err, "marshal column")
		}
		val, err := json.Marshal(r.Values[c])
		if err != nil {
			return nil, errors.Wrap(err, "marshal cell")
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of strings and keeps its key order as column order.
func (r *Row) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "read row start")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("row is not a JSON object")
	}
	row := Row{Columns: nil, Values: make(map[string]string)}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return errors.Wrap(err, "read column")
		}
		column, ok := tok.(string)
		if !ok {
			return errors.New("column is not a string")
		}
		var cell string
		if err = dec.Decode(&cell); err != nil {
			return errors.Wrap(err, "read cell")
		}
		if _, dup := row.Values[column]; !dup {
			row.Columns = append(row.Columns, column)
		}
		row.Values[column] = cell
	}
	if _, err = dec.Token(); err != nil {
		return errors.Wrap(err, "read row end")
	}
	*r = row
	return nil
}
