package ship

import (
	"fmt"

	"shipshell.dev/ship/internal/shellenv"
)

// ToEnvValue applies spec.md §4.6's strict inbound conversion: only the
// concrete Go types that correspond 1:1 to an EnvValue variant are
// accepted, and anything else is a synchronous type error rather than a
// silent best-effort stringification (spec.md §7's "fail fast, fail
// typed" principle applied to the host boundary).
func ToEnvValue(v any) (shellenv.Value, error) {
	switch x := v.(type) {
	case nil:
		return shellenv.None(), nil
	case shellenv.Value:
		return x, nil
	case string:
		return shellenv.String(x), nil
	case bool:
		return shellenv.Bool(x), nil
	case int:
		return shellenv.Integer(int64(x)), nil
	case int64:
		return shellenv.Integer(x), nil
	case float64:
		return shellenv.Decimal(x), nil
	case []string:
		elems := make([]shellenv.Value, len(x))
		for i, s := range x {
			elems[i] = shellenv.String(s)
		}
		return shellenv.List(elems), nil
	case []any:
		elems := make([]shellenv.Value, len(x))
		for i, e := range x {
			cv, err := ToEnvValue(e)
			if err != nil {
				return shellenv.Value{}, err
			}
			elems[i] = cv
		}
		return shellenv.List(elems), nil
	default:
		return shellenv.Value{}, fmt.Errorf("unsupported host value of type %T for environment entry", v)
	}
}

// FromEnvValue applies §4.6's outbound conversion, the inverse of
// ToEnvValue: every EnvValue variant maps to exactly one plain Go type,
// so host code never has to sniff a Value's Kind directly.
func FromEnvValue(v shellenv.Value) any {
	switch v.Kind {
	case shellenv.KindNone:
		return nil
	case shellenv.KindString, shellenv.KindFilePath:
		return v.StringVal()
	case shellenv.KindInteger:
		return v.IntVal()
	case shellenv.KindDecimal:
		return v.FloatVal()
	case shellenv.KindBool:
		return v.BoolVal()
	case shellenv.KindList:
		elems := v.ListVal()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = FromEnvValue(e)
		}
		return out
	default:
		return v.Project()
	}
}
