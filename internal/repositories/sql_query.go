package repositories

import (
	"strconv"
	"strings"

	intdb "github.com/KarinaChumak/tour-booking-system/internal/db"
	"github.com/KarinaChumak/tour-booking-system/internal/query"
)

// column maps a record's JSON field to a (qualified) SQL column.
type column struct {
	Name string
	Bool bool
}

type columns map[string]column

func (c column) arg(v string) any {
	if c.Bool {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			if b {
				return 1
			}
			return 0
		}
	}
	return v
}

var sqlComparison = map[query.Operator]string{
	query.OpGt:  ">",
	query.OpGte: ">=",
	query.OpLt:  "<",
	query.OpLte: "<=",
}

// whereClause compiles conditions joined with AND. A condition on a field
// the table does not expose matches nothing. fixed predicates are prepended
// verbatim.
func whereClause(conds []query.Condition, cols columns, fixed ...string) (string, []any) {
	parts := append([]string(nil), fixed...)
	args := []any{}

	for _, cond := range conds {
		col, ok := cols[cond.Field]
		if !ok || len(cond.Values) == 0 {
			parts = append(parts, "1 = 0")
			continue
		}
		switch cond.Op {
		case query.OpEq:
			parts = append(parts, col.Name+" = ?")
			args = append(args, col.arg(cond.Values[0]))
		case query.OpIn:
			parts = append(parts, col.Name+" IN ("+intdb.Placeholders(len(cond.Values))+")")
			for _, v := range cond.Values {
				args = append(args, col.arg(v))
			}
		default:
			op, ok := sqlComparison[cond.Op]
			if !ok {
				parts = append(parts, "1 = 0")
				continue
			}
			parts = append(parts, col.Name+" "+op+" ?")
			args = append(args, col.arg(cond.Values[0]))
		}
	}

	if len(parts) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// orderClause compiles the sort, skipping unknown fields. idCol breaks ties
// so pages are stable.
func orderClause(sort []query.SortField, cols columns, idCol string) string {
	parts := compileSort(sort, cols)
	if len(parts) == 0 {
		parts = compileSort(query.DefaultSort, cols)
	}
	parts = append(parts, idCol+" ASC")
	return " ORDER BY " + strings.Join(parts, ", ")
}

func compileSort(sort []query.SortField, cols columns) []string {
	out := []string{}
	for _, s := range sort {
		col, ok := cols[s.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		out = append(out, col.Name+" "+dir)
	}
	return out
}

func limitClause(q query.Query) (string, []any) {
	limit := q.Limit
	if limit < 1 {
		limit = query.DefaultLimit
	}
	return " LIMIT ? OFFSET ?", []any{limit, q.Skip()}
}
