package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdg-garage/garage-events-api/internal/store"
	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// filterColumns maps filter identifiers to event columns.
var filterColumns = map[string]string{
	"title":                 "events.title",
	"location":              "events.location",
	"type":                  "events.type",
	"capacity":              "events.capacity",
	"open_for_registration": "events.open_for_registration",
	"event_date":            "events.event_date",
	"registration_cutoff":   "events.registration_cutoff",
	"owner_id":              "events.owner_id",
}

func filterDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("title", filtering.TypeString),
		filtering.DeclareIdent("location", filtering.TypeString),
		filtering.DeclareIdent("type", filtering.TypeString),
		filtering.DeclareIdent("capacity", filtering.TypeInt),
		filtering.DeclareIdent("open_for_registration", filtering.TypeBool),
		filtering.DeclareIdent("event_date", filtering.TypeTimestamp),
		filtering.DeclareIdent("registration_cutoff", filtering.TypeTimestamp),
		filtering.DeclareIdent("owner_id", filtering.TypeString),
	)
}

// ParseFilter translates an AIP-160 filter expression over event fields into
// a SQL condition. A blank filter yields an empty condition.
func ParseFilter(filter string) (store.Condition, error) {
	if strings.TrimSpace(filter) == "" {
		return store.Condition{}, nil
	}

	decls, err := filterDeclarations()
	if err != nil {
		return store.Condition{}, fmt.Errorf("create declarations: %w", err)
	}

	parsed, err := filtering.ParseFilterString(filter, decls)
	if err != nil {
		return store.Condition{}, ErrInvalidFilter.WithMessage("invalid filter: %v", err)
	}

	cond, err := translateExpr(parsed.CheckedExpr.GetExpr())
	if err != nil {
		return store.Condition{}, ErrInvalidFilter.WithMessage("invalid filter: %v", err)
	}
	return cond, nil
}

func translateExpr(e *expr.Expr) (store.Condition, error) {
	if e == nil {
		return store.Condition{}, fmt.Errorf("empty expression")
	}
	call, ok := e.ExprKind.(*expr.Expr_CallExpr)
	if !ok {
		return store.Condition{}, fmt.Errorf("unsupported expression type: %T", e.ExprKind)
	}

	switch fn := call.CallExpr.Function; fn {
	case filtering.FunctionAnd:
		return translateJunction(call.CallExpr.Args, "AND")
	case filtering.FunctionOr:
		return translateJunction(call.CallExpr.Args, "OR")
	case filtering.FunctionNot:
		if len(call.CallExpr.Args) != 1 {
			return store.Condition{}, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := translateExpr(call.CallExpr.Args[0])
		if err != nil {
			return store.Condition{}, err
		}
		return store.Condition{Clause: "NOT " + inner.Clause, Params: inner.Params}, nil
	case filtering.FunctionEquals, filtering.FunctionNotEquals,
		filtering.FunctionLessThan, filtering.FunctionLessEquals,
		filtering.FunctionGreaterThan, filtering.FunctionGreaterEquals:
		return translateComparison(call.CallExpr.Args, fn)
	default:
		return store.Condition{}, fmt.Errorf("unsupported function: %s", fn)
	}
}

func translateJunction(args []*expr.Expr, op string) (store.Condition, error) {
	if len(args) < 2 {
		return store.Condition{}, fmt.Errorf("%s requires at least 2 arguments", op)
	}
	clauses := make([]string, 0, len(args))
	var params []any
	for _, arg := range args {
		cond, err := translateExpr(arg)
		if err != nil {
			return store.Condition{}, err
		}
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}
	return store.Condition{
		Clause: "(" + strings.Join(clauses, " "+op+" ") + ")",
		Params: params,
	}, nil
}

func translateComparison(args []*expr.Expr, op string) (store.Condition, error) {
	if len(args) != 2 {
		return store.Condition{}, fmt.Errorf("comparison requires 2 arguments")
	}

	ident, ok := args[0].GetExprKind().(*expr.Expr_IdentExpr)
	if !ok {
		return store.Condition{}, fmt.Errorf("expected field name on the left of %s", op)
	}
	column, ok := filterColumns[ident.IdentExpr.GetName()]
	if !ok {
		return store.Condition{}, fmt.Errorf("unknown field: %s", ident.IdentExpr.GetName())
	}

	value, err := extractValue(args[1])
	if err != nil {
		return store.Condition{}, err
	}

	return store.Condition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func extractValue(e *expr.Expr) (any, error) {
	switch kind := e.GetExprKind().(type) {
	case *expr.Expr_ConstExpr:
		switch c := kind.ConstExpr.GetConstantKind().(type) {
		case *expr.Constant_StringValue:
			return c.StringValue, nil
		case *expr.Constant_Int64Value:
			return c.Int64Value, nil
		case *expr.Constant_Uint64Value:
			return c.Uint64Value, nil
		case *expr.Constant_DoubleValue:
			return c.DoubleValue, nil
		case *expr.Constant_BoolValue:
			return c.BoolValue, nil
		default:
			return nil, fmt.Errorf("unsupported constant type: %T", c)
		}
	case *expr.Expr_IdentExpr:
		// Bare true and false parse as identifiers.
		switch kind.IdentExpr.GetName() {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("expected a value, got field %s", kind.IdentExpr.GetName())
	case *expr.Expr_CallExpr:
		if kind.CallExpr.Function == filtering.FunctionTimestamp && len(kind.CallExpr.Args) == 1 {
			return extractTimestamp(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected a constant or timestamp, got %T", kind)
	}
}

func extractTimestamp(e *expr.Expr) (time.Time, error) {
	s, ok := e.GetConstExpr().GetConstantKind().(*expr.Constant_StringValue)
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp argument must be a constant string")
	}
	t, err := time.Parse(time.RFC3339Nano, s.StringValue)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s.StringValue)
	}
	// Stored times are UTC, so parameters must be too for SQLite's text
	// comparison to order them correctly.
	return t.UTC(), nil
}
