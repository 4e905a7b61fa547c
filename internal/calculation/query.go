// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package calculation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// OptionQuery holds the SQL statement of a query calculation.
const OptionQuery = "query"

// Querier runs a read query. *sql.DB and the querystore satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// parameterPattern finds named parameters in the SQLite spellings
// :name, @name and $name.
var parameterPattern = regexp.MustCompile(`[:@$]([A-Za-z_][A-Za-z0-9_]*)`)

// literalPattern matches SQL string literals, which are not scanned for
// parameters.
var literalPattern = regexp.MustCompile(`'(?:[^']|'')*'`)

// QueryMethod sends a statement to a Querier with every parameter it
// names bound from the scope. The first column of the first row is the
// result; no rows is no value.
type QueryMethod struct {
	db Querier
}

// NewQueryMethod returns a query method over db.
func NewQueryMethod(db Querier) *QueryMethod {
	return &QueryMethod{db: db}
}

// FlatMatrices reports that SQL sees matrix cells as field_row_column.
func (m *QueryMethod) FlatMatrices() bool { return true }

// CheckOptions requires a non-empty query string.
func (m *QueryMethod) CheckOptions(options map[string]interface{}) error {
	q, _ := options[OptionQuery].(string)
	if strings.TrimSpace(q) == "" {
		return fmt.Errorf("the string option %q is required", OptionQuery)
	}
	return nil
}

// Evaluate runs the calculation's query.
func (m *QueryMethod) Evaluate(ctx context.Context, calc types.Calculation, scope map[string]interface{}) (interface{}, error) {
	if err := m.CheckOptions(calc.Options); err != nil {
		return nil, err
	}
	query := calc.Options[OptionQuery].(string)
	args, err := bindParameters(query, scope)
	if err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("running query: no columns returned")
	}
	dest := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scanning result: %w", err)
	}
	if b, ok := dest[0].([]byte); ok {
		return string(b), nil
	}
	return dest[0], nil
}

// bindParameters binds each distinct name the query mentions.
func bindParameters(query string, scope map[string]interface{}) ([]interface{}, error) {
	var args []interface{}
	seen := map[string]bool{}
	for _, match := range parameterPattern.FindAllStringSubmatch(literalPattern.ReplaceAllString(query, "''"), -1) {
		name := match[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		v, ok := scope[name]
		if !ok {
			return nil, fmt.Errorf("binding %q: %w", name, ErrMissingScopeName)
		}
		bound, err := bindValue(v)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", name, err)
		}
		args = append(args, sql.Named(name, bound))
	}
	return args, nil
}

// bindValue converts a scope value into something the driver accepts:
// temporal values as their ISO text, collections as JSON text.
func bindValue(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil, string, bool, int, int64, float64, []byte:
		return t, nil
	case time.Time:
		return formatTemporal(t), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// formatTemporal renders t in the layout it was most likely parsed from:
// times of day carry year zero and dates carry midnight.
func formatTemporal(t time.Time) string {
	switch {
	case t.Year() == 0:
		return t.Format(types.TimeLayout)
	case t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0:
		return t.Format(types.DateLayout)
	}
	return t.Format(types.DateTimeLayout)
}
