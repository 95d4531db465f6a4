// Package table holds the row-oriented boundary representation: tables of
// named fields coming in, sheets of computed results going out.
package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/values"
)

// #region columns

// Has reports whether the table has the named column.
func (t *Table) Has(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Require returns a configuration error listing every absent column
// together with the available ones.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.MissingColumns(t.Name, missing, t.Columns)
}

// Rename renames a column in place when from exists and to does not.
func (t *Table) Rename(from, to string) bool {
	if !t.Has(from) || t.Has(to) {
		return false
	}
	for i, c := range t.Columns {
		if c == from {
			t.Columns[i] = to
		}
	}
	for _, r := range t.Rows {
		if v, ok := r[from]; ok {
			r[to] = v
			delete(r, from)
		}
	}
	return true
}

// Filter returns a copy holding only rows whose field equals value.
func (t *Table) Filter(field, value string) *Table {
	out := &Table{Name: t.Name, Columns: append([]string(nil), t.Columns...)}
	for _, r := range t.Rows {
		if r[field] == value {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Distinct returns the sorted distinct non-empty values of a field.
func (t *Table) Distinct(field string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range t.Rows {
		v := r[field]
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// #endregion columns

// #region loaders

// LoadFile reads a table from a .csv, .tsv or .json file. The table name is
// the file's base name.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read table %s", path)
	}
	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(name, bytes.NewReader(data))
	default:
		return ReadCSV(name, bytes.NewReader(data), 0)
	}
}

// ReadCSV parses delimited text with a header row. When delim is 0 the
// delimiter is sniffed among ',', ';' and tab from the header line.
// Column names are trimmed.
func ReadCSV(name string, r io.Reader, delim rune) (*Table, error) {
	br := bufio.NewReader(r)
	if delim == 0 {
		head, err := br.Peek(4096)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return nil, errors.Wrapf(err, "sniff delimiter %s", name)
		}
		delim = sniffDelimiter(head)
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return &Table{Name: name}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read header %s", name)
	}
	t := &Table{Name: name, Columns: normColumns(header)}

	line := 1
	for {
		line++
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", name, line)
		}
		row := make(Row, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadJSON parses an array of flat objects. Column order follows first
// appearance across the objects.
func ReadJSON(name string, r io.Reader) (*Table, error) {
	var objs []map[string]any
	if err := json.NewDecoder(r).Decode(&objs); err != nil {
		return nil, errors.Wrapf(err, "parse json table %s", name)
	}
	return FromMaps(name, objs, nil), nil
}

// FromMaps builds a table from decoded objects. columns fixes the column
// order; when nil, order is first appearance with keys of each object sorted.
func FromMaps(name string, objs []map[string]any, columns []string) *Table {
	t := &Table{Name: name}
	seen := map[string]bool{}
	add := func(c string) {
		c = strings.TrimSpace(c)
		if !seen[c] {
			seen[c] = true
			t.Columns = append(t.Columns, c)
		}
	}
	for _, c := range columns {
		add(c)
	}
	for _, o := range objs {
		keys := make([]string, 0, len(o))
		for k := range o {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		row := make(Row, len(o))
		for _, k := range keys {
			add(k)
			row[strings.TrimSpace(k)] = cellText(o[k])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return values.FormatNumber(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func normColumns(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}

func sniffDelimiter(head []byte) rune {
	line := string(head)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// #endregion loaders

// #region clone

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, Columns: append([]string(nil), t.Columns...), Rows: make([]Row, len(t.Rows))}
	for i, r := range t.Rows {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// #endregion clone
