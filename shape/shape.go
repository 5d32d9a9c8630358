// Package shape compares decoded JSON values against a partial expected
// structure. Expected objects are subsets, expected arrays are prefixes and
// the string "..." accepts any non-empty value. Responses are allowed to
// carry extra fields; conformance cases only pin what they care about.
package shape

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// Wildcard matches any non-empty value.
const Wildcard = "..."

// Matches reports whether actual satisfies the expected shape. With
// relaxNumbers set, numeric expectations only pin the type, not the value;
// useful for fields like token counts that vary run to run.
func Matches(actual, expected any, relaxNumbers bool) bool {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, v := range exp {
			a, ok := act[k]
			if !ok {
				return false
			}
			if !Matches(a, v, relaxNumbers) {
				return false
			}
		}
		return true
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return false
		}
		if len(exp) > len(act) {
			return false
		}
		for i := range exp {
			if !Matches(act[i], exp[i], relaxNumbers) {
				return false
			}
		}
		return true
	case string:
		if exp == Wildcard {
			if s, ok := actual.(string); ok {
				return strings.TrimSpace(s) != ""
			}
			return actual != nil
		}
		s, ok := actual.(string)
		return ok && s == exp
	case float64:
		if relaxNumbers {
			switch actual.(type) {
			case float64, int, int64:
				return true
			default:
				return false
			}
		}
		switch a := actual.(type) {
		case float64:
			return a == exp
		case int:
			return float64(a) == exp
		case int64:
			return float64(a) == exp
		default:
			return false
		}
	default:
		return actual == expected
	}
}

// FirstDiff walks both values and returns the path, expected and actual
// rendering of the first mismatch. ok is false when the values match.
func FirstDiff(actual, expected any) (path, exp, act string, ok bool) {
	return firstDiff("$", actual, expected)
}

func firstDiff(path string, actual, expected any) (string, string, string, bool) {
	switch exp := expected.(type) {
	case map[string]any:
		act, isMap := actual.(map[string]any)
		if !isMap {
			return path, compact(expected), compact(actual), true
		}
		for k, v := range exp {
			a, exists := act[k]
			if !exists {
				return path + "." + k, compact(v), "<missing>", true
			}
			if p, e, av, diff := firstDiff(path+"."+k, a, v); diff {
				return p, e, av, true
			}
		}
		return "", "", "", false
	case []any:
		act, isSlice := actual.([]any)
		if !isSlice {
			return path, compact(expected), compact(actual), true
		}
		if len(act) < len(exp) {
			return path, fmt.Sprintf("len>=%d", len(exp)), fmt.Sprintf("len=%d", len(act)), true
		}
		for i := range exp {
			if p, e, av, diff := firstDiff(fmt.Sprintf("%s[%d]", path, i), act[i], exp[i]); diff {
				return p, e, av, true
			}
		}
		return "", "", "", false
	default:
		if !Matches(actual, expected, false) {
			return path, compact(expected), compact(actual), true
		}
		return "", "", "", false
	}
}

// StatusAllowed reports whether a status code satisfies the expectation
// list. An empty list means any 2xx.
func StatusAllowed(got int, allowed []int) bool {
	if len(allowed) == 0 {
		return got >= 200 && got <= 299
	}
	for _, s := range allowed {
		if got == s {
			return true
		}
	}
	return false
}

// ErrorHint digs a human-readable error message out of a decoded response
// body, trying the conventional keys first.
func ErrorHint(v any) string {
	switch obj := v.(type) {
	case map[string]any:
		for _, key := range []string{"detail", "error", "errors", "message", "msg", "reason", "title"} {
			if val, ok := obj[key]; ok {
				return compact(val)
			}
		}
		for _, val := range obj {
			if hint := ErrorHint(val); hint != "" {
				return hint
			}
		}
	case []any:
		for _, item := range obj {
			if hint := ErrorHint(item); hint != "" {
				return hint
			}
		}
	}
	return ""
}

// HintFromBody is ErrorHint over a raw body; non-JSON bodies yield "".
func HintFromBody(raw []byte) string {
	if strings.TrimSpace(string(raw)) == "" {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return ErrorHint(v)
}

func compact(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
