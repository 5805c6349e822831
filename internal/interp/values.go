package interp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/storytree/pkg/dsl/ast"
)

// Script values are nil, bool, float64 or string.

// Truthy reports whether a value counts as true in a condition.
func Truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	}
	return true
}

// ToString renders a value the way templates show it.
func ToString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return ast.FormatNumber(v)
	}
	return fmt.Sprint(v)
}

// Normalize converts host values to script values.
func Normalize(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case uint:
		return float64(n)
	case float32:
		return float64(n)
	case fmt.Stringer:
		return n.String()
	}
	return v
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case float64:
		return "number"
	case string:
		return "string"
	}
	return fmt.Sprintf("%T", v)
}

func toNumber(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to a number", v)
		}
		return f, nil
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("cannot convert %s to a number", typeName(v))
}

func equal(a, b any) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case float64:
		n, ok := b.(float64)
		return ok && a == n
	case string:
		s, ok := b.(string)
		return ok && a == s
	case bool:
		x, ok := b.(bool)
		return ok && a == x
	}
	return false
}

func binary(op string, l, r any) (any, error) {
	switch op {
	case "==":
		return equal(l, r), nil
	case "!=":
		return !equal(l, r), nil
	case "+":
		_, ls := l.(string)
		_, rs := r.(string)
		if ls || rs {
			return ToString(l) + ToString(r), nil
		}
	case "<", "<=", ">", ">=":
		if a, ok := l.(string); ok {
			b, ok := r.(string)
			if !ok {
				return nil, fmt.Errorf("cannot compare string with %s", typeName(r))
			}
			return compare(op, strings.Compare(a, b)), nil
		}
	}

	a, lok := l.(float64)
	b, rok := r.(float64)
	if !lok || !rok {
		return nil, fmt.Errorf("operator %s needs numbers, got %s and %s", op, typeName(l), typeName(r))
	}
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return a / b, nil
	case "%":
		if b == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return math.Mod(a, b), nil
	case "<", "<=", ">", ">=":
		c := 0
		if a < b {
			c = -1
		} else if a > b {
			c = 1
		}
		return compare(op, c), nil
	}
	return nil, fmt.Errorf("unknown operator %s", op)
}

func compare(op string, c int) bool {
	switch op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	}
	return c >= 0
}
