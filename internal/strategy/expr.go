package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/spf13/cast"
)

// EvalStrike evaluates a strike expression such as "TARGET*0.97",
// "CURRENT+5" or "182.5". CURRENT (alias SPOT) and TARGET are the only
// variables. The result must be a finite positive number.
func EvalStrike(expr string, current, target float64) (float64, error) {
	src := strings.ToUpper(strings.TrimSpace(expr))
	if src == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidStrikeExpression)
	}

	evalExpr, err := govaluate.NewEvaluableExpression(src)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidStrikeExpression, expr, err)
	}

	result, err := evalExpr.Evaluate(map[string]interface{}{
		"CURRENT": current,
		"SPOT":    current,
		"TARGET":  target,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidStrikeExpression, expr, err)
	}

	if _, isBool := result.(bool); isBool {
		return 0, fmt.Errorf("%w: %q is not numeric", ErrInvalidStrikeExpression, expr)
	}
	f, err := cast.ToFloat64E(result)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidStrikeExpression, expr, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, fmt.Errorf("%w: %q evaluates to %v", ErrInvalidStrikeExpression, expr, f)
	}

	return f, nil
}

// EvalStrikePtr is EvalStrike for optional inputs: an empty expression
// yields nil.
func EvalStrikePtr(expr string, current, target float64) (*float64, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	v, err := EvalStrike(expr, current, target)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// SharedOverridesFromExprs evaluates the four shared strike expressions
// and applies them with SharedOverrides. Empty expressions stay unset.
func SharedOverridesFromExprs(current, target float64, longCall, shortCall, longPut, shortPut string) (Overrides, error) {
	var vals [4]*float64
	for i, expr := range []string{longCall, shortCall, longPut, shortPut} {
		v, err := EvalStrikePtr(expr, current, target)
		if err != nil {
			return Overrides{}, err
		}
		vals[i] = v
	}
	return SharedOverrides(vals[0], vals[1], vals[2], vals[3]), nil
}
