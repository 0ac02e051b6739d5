package sqldsl

import (
	"strings"
)

// Comparison operators

// Eq represents an equality comparison (=).
type Eq struct {
	Left  Expr
	Right Expr
}

func (e Eq) SQL() string { return e.Left.SQL() + " = " + e.Right.SQL() }

// Ne represents a not-equal comparison (!=).
type Ne struct {
	Left  Expr
	Right Expr
}

func (n Ne) SQL() string { return n.Left.SQL() + " != " + n.Right.SQL() }

// Lt represents a less-than comparison (<).
type Lt struct {
	Left  Expr
	Right Expr
}

func (l Lt) SQL() string { return l.Left.SQL() + " < " + l.Right.SQL() }

// Gt represents a greater-than comparison (>).
type Gt struct {
	Left  Expr
	Right Expr
}

func (g Gt) SQL() string { return g.Left.SQL() + " > " + g.Right.SQL() }

// Lte represents a less-than-or-equal comparison (<=).
type Lte struct {
	Left  Expr
	Right Expr
}

func (l Lte) SQL() string { return l.Left.SQL() + " <= " + l.Right.SQL() }

// Gte represents a greater-than-or-equal comparison (>=).
type Gte struct {
	Left  Expr
	Right Expr
}

func (g Gte) SQL() string { return g.Left.SQL() + " >= " + g.Right.SQL() }

// Like represents a pattern match (LIKE).
type Like struct {
	Left  Expr
	Right Expr
}

func (l Like) SQL() string { return l.Left.SQL() + " LIKE " + l.Right.SQL() }

// Compare builds the comparison for an operator token. It returns false for
// tokens that are not comparison operators.
func Compare(op string, left, right Expr) (Expr, bool) {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case "=", "==":
		return Eq{Left: left, Right: right}, true
	case "!=", "<>":
		return Ne{Left: left, Right: right}, true
	case "<":
		return Lt{Left: left, Right: right}, true
	case "<=":
		return Lte{Left: left, Right: right}, true
	case ">":
		return Gt{Left: left, Right: right}, true
	case ">=":
		return Gte{Left: left, Right: right}, true
	case "like":
		return Like{Left: left, Right: right}, true
	default:
		return nil, false
	}
}

// Arithmetic operators

// Sub represents subtraction (-).
type Sub struct {
	Left  Expr
	Right Expr
}

func (s Sub) SQL() string { return s.Left.SQL() + " - " + s.Right.SQL() }

// Logical operators

// filterNilExprs removes nil expressions from the slice.
func filterNilExprs(exprs []Expr) []Expr {
	filtered := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// joinExprs renders expressions joined by a separator, wrapped in parentheses if more than one.
func joinExprs(exprs []Expr, sep, emptyVal string) string {
	switch len(exprs) {
	case 0:
		return emptyVal
	case 1:
		return exprs[0].SQL()
	default:
		parts := make([]string, len(exprs))
		for i, e := range exprs {
			parts[i] = e.SQL()
		}
		return "(" + strings.Join(parts, sep) + ")"
	}
}

// AndExpr represents a logical AND of multiple expressions.
type AndExpr struct {
	Exprs []Expr
}

func (a AndExpr) SQL() string { return joinExprs(a.Exprs, " AND ", "TRUE") }

// And creates an AND expression from multiple expressions.
func And(exprs ...Expr) AndExpr {
	return AndExpr{Exprs: filterNilExprs(exprs)}
}

// NotExists represents a NOT EXISTS subquery.
type NotExists struct {
	Query SQLer
}

func (n NotExists) SQL() string {
	return "NOT EXISTS (\n" + IndentLines(n.Query.SQL(), "  ") + "\n)"
}

// IsNotNull represents IS NOT NULL check.
type IsNotNull struct {
	Expr Expr
}

func (i IsNotNull) SQL() string { return i.Expr.SQL() + " IS NOT NULL" }
