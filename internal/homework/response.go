package homework

import (
	"encoding/json"
	"math"
)

const (
	keyHomeworks   = "homeworks"
	keyCurrentDate = "current_date"
)

// CheckResponse validates the decoded API document and returns its
// submission list (newest first, possibly empty).
func CheckResponse(doc any) ([]any, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, malformed("ответ от сервера не является словарём")
	}
	raw, ok := m[keyHomeworks]
	if !ok {
		return nil, &FieldError{Field: keyHomeworks}
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, malformed("ответ под ключом " + keyHomeworks + " приходит не в виде списка")
	}
	return list, nil
}

// CurrentDate extracts the server-reported "current_date" unix timestamp.
func CurrentDate(doc any) (int64, bool) {
	m, ok := doc.(map[string]any)
	if !ok {
		return 0, false
	}
	return asInt64(m[keyCurrentDate])
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	default:
		return 0, false
	}
}
