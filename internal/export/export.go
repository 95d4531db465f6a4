// Package export writes result sheets as CSV files, JSON or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/logging"
	"github.com/carozos/lotalloc/internal/table"
	"github.com/carozos/lotalloc/internal/values"
)

// Supported output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted --format values.
var Formats = []string{FormatCSV, FormatJSON, FormatYAML}

// #region document
// Document is the serialized form of a sheet. Rows are objects keyed by
// column so that JSON and YAML readers need no column index.
type Document struct {
	Name    string           `json:"name" yaml:"name"`
	Columns []string         `json:"columns" yaml:"columns"`
	Rows    []map[string]any `json:"rows" yaml:"rows"`
}

// Documents converts sheets, mapping missing values to null.
func Documents(sheets []table.Sheet) []Document {
	out := make([]Document, len(sheets))
	for i, s := range sheets {
		d := Document{Name: s.Name, Columns: s.Columns, Rows: make([]map[string]any, len(s.Rows))}
		for j, row := range s.Rows {
			obj := make(map[string]any, len(s.Columns))
			for c, col := range s.Columns {
				if c < len(row) {
					obj[col] = Value(row[c])
				} else {
					obj[col] = nil
				}
			}
			d.Rows[j] = obj
		}
		out[i] = d
	}
	return out
}

// Value converts a sheet cell to a plain serializable value.
func Value(v any) any {
	switch x := v.(type) {
	case values.Opt:
		if !x.Ok {
			return nil
		}
		return x.V
	default:
		return x
	}
}

// #endregion document

// #region text
// Cell renders a sheet cell as CSV text. Missing values are empty.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case values.Opt:
		if !x.Ok {
			return ""
		}
		return values.FormatNumber(x.V)
	case float64:
		return values.FormatNumber(x)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// #endregion text

// #region writers
// WriteCSV writes one sheet with a header row.
func WriteCSV(w io.Writer, s table.Sheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Columns); err != nil {
		return errors.Wrapf(err, "write header %s", s.Name)
	}
	rec := make([]string, len(s.Columns))
	for _, row := range s.Rows {
		for i := range rec {
			rec[i] = ""
			if i < len(row) {
				rec[i] = Cell(row[i])
			}
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "write row %s", s.Name)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVDir writes each sheet to <dir>/<name>.csv, creating dir.
func WriteCSVDir(dir string, sheets []table.Sheet) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}
	var paths []string
	for _, s := range sheets {
		p := filepath.Join(dir, FileName(s.Name)+".csv")
		f, err := os.Create(p)
		if err != nil {
			return paths, errors.Wrapf(err, "create %s", p)
		}
		werr := WriteCSV(f, s)
		cerr := f.Close()
		if werr != nil {
			return paths, werr
		}
		if cerr != nil {
			return paths, errors.Wrapf(cerr, "close %s", p)
		}
		paths = append(paths, p)
	}
	logging.Logger.Debugw("sheets exported", logging.FieldPath, dir, "sheets", len(paths))
	return paths, nil
}

// WriteJSON writes all sheets as an indented JSON array.
func WriteJSON(w io.Writer, sheets []table.Sheet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(Documents(sheets)), "encode json")
}

// WriteYAML writes all sheets as a YAML sequence.
func WriteYAML(w io.Writer, sheets []table.Sheet) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Documents(sheets)); err != nil {
		return errors.Wrap(err, "encode yaml")
	}
	return errors.Wrap(enc.Close(), "close yaml")
}

// Write dispatches on format. CSV output goes to the directory dest; JSON
// and YAML go to the file dest, or to stdout when dest is "" or "-".
func Write(format, dest string, sheets []table.Sheet, stdout io.Writer) error {
	switch strings.ToLower(format) {
	case FormatCSV:
		if dest == "" || dest == "-" {
			return errors.WithHint(
				errors.Newf("csv export needs an output directory"),
				"pass --out <dir>")
		}
		_, err := WriteCSVDir(dest, sheets)
		return err
	case FormatJSON, FormatYAML:
		w := stdout
		if dest != "" && dest != "-" {
			f, err := os.Create(dest)
			if err != nil {
				return errors.Wrapf(err, "create %s", dest)
			}
			defer f.Close()
			w = f
		}
		if strings.ToLower(format) == FormatJSON {
			return WriteJSON(w, sheets)
		}
		return WriteYAML(w, sheets)
	default:
		return errors.Newf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// FileName makes a sheet name safe to use as a file name.
func FileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}

// #endregion writers
