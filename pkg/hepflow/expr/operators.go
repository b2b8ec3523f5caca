package expr

import (
	"fmt"
	"strings"
)

// Compare compares two values using the specified operator.
// Returns an error for unknown operators.
func Compare(left, right any, op string) (bool, error) {
	switch op {
	case "==":
		return compareEquals(left, right), nil
	case "!=":
		return compareNotEquals(left, right), nil
	case "<":
		return compareLT(left, right), nil
	case ">":
		return compareGT(left, right), nil
	case "<=":
		return compareLTE(left, right), nil
	case ">=":
		return compareGTE(left, right), nil
	case "contains":
		return compareContains(left, right), nil
	default:
		return false, fmt.Errorf("unknown operator: %s", op)
	}
}

// compareEquals compares numerically when both sides are numeric, otherwise
// by string form.
func compareEquals(left, right any) bool {
	l, lok := toNumber(left)
	r, rok := toNumber(right)
	if lok && rok {
		return l == r
	}
	return fmt.Sprintf("%v", left) == fmt.Sprintf("%v", right)
}

func compareNotEquals(left, right any) bool {
	return !compareEquals(left, right)
}

func compareLT(left, right any) bool {
	return ToFloat64(left) < ToFloat64(right)
}

func compareGT(left, right any) bool {
	return ToFloat64(left) > ToFloat64(right)
}

func compareLTE(left, right any) bool {
	return ToFloat64(left) <= ToFloat64(right)
}

func compareGTE(left, right any) bool {
	return ToFloat64(left) >= ToFloat64(right)
}

// compareContains checks if left contains right as a substring.
func compareContains(left, right any) bool {
	return strings.Contains(fmt.Sprintf("%v", left), fmt.Sprintf("%v", right))
}
