package modules

import (
	"encoding/csv"
	"strings"

	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
	"github.com/ivarvong/pyex-sub003/pkgs/value"
)

func buildCSV(ctx *pycontext.Context) value.Module {
	m := value.NewModule("csv")
	m.Set("reader", value.Builtin{Name: "reader", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "reader() takes exactly one argument")
		}
		text, ok := args[0].(value.Str)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "csv.reader() expects a str of file content")
		}
		rows, err := csv.NewReader(strings.NewReader(string(text))).ReadAll()
		if err != nil {
			return nil, perrors.Wrap(perrors.KindRuntime, perrors.ValueError, "invalid CSV: "+err.Error(), err)
		}
		out := make([]value.Value, len(rows))
		for i, row := range rows {
			cells := make([]value.Value, len(row))
			for j, c := range row {
				cells[j] = value.Str(c)
			}
			out[i] = value.NewList(cells)
		}
		return value.NewList(out), nil
	}})
	m.Set("writer_text", value.Builtin{Name: "writer_text", Fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "writer_text() takes exactly one argument")
		}
		rows, ok := args[0].(value.List)
		if !ok {
			return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "expected a list of rows")
		}
		var sb strings.Builder
		w := csv.NewWriter(&sb)
		for _, rv := range rows.Get() {
			row, ok := rv.(value.List)
			if !ok {
				return nil, perrors.New(perrors.KindRuntime, perrors.TypeError, "each row must be a list")
			}
			cells := make([]string, 0, len(row.Get()))
			for _, c := range row.Get() {
				cells = append(cells, value.ToStr(c))
			}
			if err := w.Write(cells); err != nil {
				return nil, perrors.Wrap(perrors.KindRuntime, perrors.ValueError, "csv write failed", err)
			}
		}
		w.Flush()
		return value.Str(sb.String()), nil
	}})
	return m
}
