package rpc

import (
	"encoding/json"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/carozos/lotalloc/internal/errors"
	"github.com/carozos/lotalloc/internal/export"
	"github.com/carozos/lotalloc/internal/table"
	"github.com/carozos/lotalloc/internal/tolerance"
	"github.com/carozos/lotalloc/internal/values"
)

// #region tables-in
// TableValue encodes a table in columnar form, {columns: [...], rows:
// [[...]]}, which keeps column order across the wire.
func TableValue(t *table.Table) *structpb.Value {
	cols := make([]*structpb.Value, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = structpb.NewStringValue(c)
	}
	rows := make([]*structpb.Value, len(t.Rows))
	for i, r := range t.Rows {
		cells := make([]*structpb.Value, len(t.Columns))
		for j, c := range t.Columns {
			cells[j] = structpb.NewStringValue(r[c])
		}
		rows[i] = structpb.NewListValue(&structpb.ListValue{Values: cells})
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"columns": structpb.NewListValue(&structpb.ListValue{Values: cols}),
		"rows":    structpb.NewListValue(&structpb.ListValue{Values: rows}),
	}})
}

// TableFromValue decodes a request table. Both the columnar form and a
// list of flat objects are accepted. A nil or null value yields nil.
func TableFromValue(name string, v *structpb.Value) (*table.Table, error) {
	if v == nil {
		return nil, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_ListValue:
		objs := make([]map[string]any, 0, len(k.ListValue.GetValues()))
		for i, item := range k.ListValue.GetValues() {
			s := item.GetStructValue()
			if s == nil {
				return nil, errors.Wrapf(errors.ErrInvalidConfig, "%s: row %d is not an object", name, i)
			}
			objs = append(objs, s.AsMap())
		}
		return table.FromMaps(name, objs, nil), nil
	case *structpb.Value_StructValue:
		return columnar(name, k.StructValue)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "%s: expected a table", name)
	}
}

func columnar(name string, s *structpb.Struct) (*table.Table, error) {
	colsV, ok := s.GetFields()["columns"]
	if !ok || colsV.GetListValue() == nil {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "%s: columnar table needs a columns list", name)
	}
	t := &table.Table{Name: name}
	for _, c := range colsV.GetListValue().GetValues() {
		t.Columns = append(t.Columns, strings.TrimSpace(cellText(c)))
	}
	for i, rv := range s.GetFields()["rows"].GetListValue().GetValues() {
		cells := rv.GetListValue()
		if cells == nil {
			return nil, errors.Wrapf(errors.ErrInvalidConfig, "%s: row %d is not a list", name, i)
		}
		row := make(table.Row, len(t.Columns))
		for j, c := range t.Columns {
			if j < len(cells.GetValues()) {
				row[c] = strings.TrimSpace(cellText(cells.GetValues()[j]))
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func cellText(v *structpb.Value) string {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_NumberValue:
		return values.FormatNumber(k.NumberValue)
	case *structpb.Value_BoolValue:
		if k.BoolValue {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// Quantiles reads a quantile schedule given either as a list of numbers or
// as text such as "90,70,50". Absent values yield nil.
func Quantiles(v *structpb.Value) []float64 {
	if v == nil {
		return nil
	}
	if l := v.GetListValue(); l != nil {
		parts := make([]string, 0, len(l.GetValues()))
		for _, x := range l.GetValues() {
			parts = append(parts, cellText(x))
		}
		return tolerance.ParseQuantiles(strings.Join(parts, ","))
	}
	return tolerance.ParseQuantiles(cellText(v))
}

// #endregion tables-in

// #region sheets-out
// SheetsStruct encodes result sheets keyed by sheet name. Each sheet is
// {columns: [...], rows: [{column: value}]} with missing values as null.
func SheetsStruct(sheets []table.Sheet) (*structpb.Struct, error) {
	fields := make(map[string]any, len(sheets))
	for _, d := range export.Documents(sheets) {
		cols := make([]any, len(d.Columns))
		for i, c := range d.Columns {
			cols[i] = c
		}
		rows := make([]any, len(d.Rows))
		for i, r := range d.Rows {
			rows[i] = r
		}
		fields[d.Name] = map[string]any{"columns": cols, "rows": rows}
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Wrap(err, "encode sheets")
	}
	return s, nil
}

// DecodeSheets is the client-side inverse of SheetsStruct.
func DecodeSheets(s *structpb.Struct) (map[string]export.Document, error) {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return nil, errors.Wrap(err, "marshal response")
	}
	var out map[string]export.Document
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "decode sheets")
	}
	for name, d := range out {
		d.Name = name
		out[name] = d
	}
	return out, nil
}

// #endregion sheets-out
