package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// shape trims a list of JSON objects down to what the caller asked for.
type shape struct {
	fields []string
	filter *filterSpec
	limit  int
}

// filterSpec is "field:op:value". Ops: contains, eq, ne, gt, lt.
type filterSpec struct {
	field string
	op    string
	value string
}

func parseShape(fieldsStr, filterStr, limitStr string) (shape, error) {
	sh := shape{fields: parseList(fieldsStr)}

	if filterStr != "" {
		parts := strings.SplitN(filterStr, ":", 3)
		if len(parts) != 3 {
			return shape{}, fmt.Errorf("invalid filter %q (want field:op:value)", filterStr)
		}
		switch parts[1] {
		case "contains", "eq", "ne", "gt", "lt":
		default:
			return shape{}, fmt.Errorf("unknown filter op %q (use: contains, eq, ne, gt, lt)", parts[1])
		}
		sh.filter = &filterSpec{field: parts[0], op: parts[1], value: parts[2]}
	}

	if limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return shape{}, fmt.Errorf("invalid limit %q", limitStr)
		}
		sh.limit = limit
	}

	return sh, nil
}

func (sh shape) apply(items []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if sh.filter != nil && !sh.filter.match(item) {
			continue
		}
		if len(sh.fields) > 0 {
			item = pickFields(item, sh.fields)
		}
		out = append(out, item)
		if sh.limit > 0 && len(out) == sh.limit {
			break
		}
	}
	return out
}

// pickFields extracts only the specified fields from an object.
// Supports dot notation for nested fields (e.g. "files.path").
func pickFields(obj map[string]any, fields []string) map[string]any {
	result := make(map[string]any, len(fields))
	for _, f := range fields {
		key, rest, nested := strings.Cut(f, ".")
		val, ok := obj[key]
		if !ok {
			continue
		}
		if !nested {
			result[key] = val
			continue
		}
		inner, ok := val.(map[string]any)
		if !ok {
			continue
		}
		picked := pickFields(inner, []string{rest})
		if existing, ok := result[key].(map[string]any); ok {
			for k, v := range picked {
				existing[k] = v
			}
		} else {
			result[key] = picked
		}
	}
	return result
}

// lookup retrieves a value using dot notation.
func lookup(obj map[string]any, field string) (any, bool) {
	key, rest, nested := strings.Cut(field, ".")
	val, ok := obj[key]
	if !ok || !nested {
		return val, ok
	}
	inner, ok := val.(map[string]any)
	if !ok {
		return nil, false
	}
	return lookup(inner, rest)
}

func (f *filterSpec) match(obj map[string]any) bool {
	val, ok := lookup(obj, f.field)
	if !ok || val == nil {
		return false
	}
	got := fmt.Sprint(val)

	switch f.op {
	case "contains":
		return strings.Contains(strings.ToLower(got), strings.ToLower(f.value))
	case "eq":
		return strings.EqualFold(got, f.value)
	case "ne":
		return !strings.EqualFold(got, f.value)
	case "gt", "lt":
		a, err1 := strconv.ParseFloat(got, 64)
		b, err2 := strconv.ParseFloat(f.value, 64)
		if err1 != nil || err2 != nil {
			return false
		}
		if f.op == "gt" {
			return a > b
		}
		return a < b
	}
	return false
}
