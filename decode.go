package activitylog

import (
	"encoding/json"
	"reflect"
	"sort"
	"strconv"

	"github.com/mohae/deepcopy"
)

// decodeJSON turns a JSON-bearing column value into maps and slices.
// Raw bytes and strings are decoded; text that is not JSON is kept as a string.
func decodeJSON(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case map[string]any, []any:
		return x
	case json.RawMessage:
		return unmarshalOr(x, string(x))
	case []byte:
		return unmarshalOr(x, string(x))
	case string:
		return unmarshalOr([]byte(x), x)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		b := rv.Bytes()
		return unmarshalOr(b, string(b))
	}
	return normalize(v)
}

func unmarshalOr(b []byte, fallback any) any {
	if len(b) == 0 {
		return nil
	}
	var js any
	if json.Unmarshal(b, &js) == nil {
		return js
	}
	return fallback
}

// normalize converts typed maps, slices and structs into map[string]any / []any.
func normalize(v any) any {
	switch v.(type) {
	case nil, map[string]any, []any, string, bool, float64:
		return v
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var js any
	if json.Unmarshal(b, &js) != nil {
		return nil
	}
	return js
}

// walk descends segs into v. Map keys and slice indexes are supported, and
// "*" collects the remainder of the path across every element.
func walk(v any, segs []string) any {
	for i, seg := range segs {
		if v == nil {
			return nil
		}
		v = normalize(v)
		if seg == "*" {
			var items []any
			switch x := v.(type) {
			case map[string]any:
				for _, k := range sortedKeys(x) {
					items = append(items, walk(x[k], segs[i+1:]))
				}
			case []any:
				for _, item := range x {
					items = append(items, walk(item, segs[i+1:]))
				}
			default:
				return nil
			}
			return items
		}
		switch x := v.(type) {
		case map[string]any:
			v = x[seg]
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(x) {
				return nil
			}
			v = x[idx]
		default:
			return nil
		}
	}
	return v
}

// setPath writes v at the nested location described by segs, creating
// intermediate maps and replacing anything that is not a map on the way.
// The map under segs[0] is copied first so values read from a record are
// never written to.
func (s *Snapshot) setPath(segs []string, v any) {
	if len(segs) == 0 {
		return
	}
	if len(segs) == 1 {
		s.Set(segs[0], v)
		return
	}
	m, ok := s.Value(segs[0]).(map[string]any)
	if ok && m != nil {
		m, _ = deepcopy.Copy(m).(map[string]any)
	}
	if m == nil {
		m = map[string]any{}
	}
	s.Set(segs[0], m)
	for _, seg := range segs[1 : len(segs)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[seg] = next
		}
		m = next
	}
	m[segs[len(segs)-1]] = v
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
