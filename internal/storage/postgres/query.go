package postgres

import (
	"strconv"
	"strings"

	"github.com/polkiloo/catalogsync/internal/domain/model"
)

type sortSpec struct {
	columns map[string]string
	column  string
	order   model.SortOrder
}

var (
	orderSort = sortSpec{
		columns: map[string]string{
			model.SortByDateCreated: "date_created",
			model.SortByTotal:       "total",
			model.SortByName:        "number",
			model.SortByPrice:       "total",
		},
		column: "date_created",
		order:  model.SortDesc,
	}
	productSort = sortSpec{
		columns: map[string]string{
			model.SortByDateCreated: "updated_at",
			model.SortByTotal:       "price",
			model.SortByName:        "name",
			model.SortByPrice:       "price",
		},
		column: "name",
		order:  model.SortAsc,
	}
)

// orderBy renders an ORDER BY clause from a whitelisted sort key.
func (s sortSpec) orderBy(key string, order model.SortOrder) string {
	column, ok := s.columns[key]
	if !ok {
		column = s.column
	}
	dir := s.order
	if order == model.SortAsc || order == model.SortDesc {
		dir = order
	}
	return "ORDER BY " + column + " " + strings.ToUpper(string(dir)) + ", id " + strings.ToUpper(string(dir))
}

type whereBuilder struct {
	clauses []string
	args    []any
}

// arg registers a bind value and returns its placeholder.
func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *whereBuilder) add(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *whereBuilder) page(page, limit int) string {
	page, limit = model.NormalizePage(page, limit)
	return " LIMIT " + w.arg(limit) + " OFFSET " + w.arg(model.Offset(page, limit))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
