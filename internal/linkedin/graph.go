// File: internal/linkedin/graph.go
package linkedin

import "strings"

// The Voyager API ships responses in a normalized envelope: a sparse "data"
// tree whose "*"-prefixed keys hold entity URN strings, plus an "included"
// list carrying the referenced entities. Denormalize stitches the two back
// into the nested document the extraction code works on.

// Denormalize resolves every reference in the envelope's data tree against
// its included entities. It never fails; unresolvable references stay as raw
// URN strings and malformed input comes back as-is.
func Denormalize(raw map[string]any) map[string]any {
	data := asMap(raw["data"])
	if data == nil {
		data = raw
	}
	included := asSlice(raw["included"])
	if len(included) == 0 {
		return data
	}

	lookup := make(map[string]map[string]any, len(included))
	for _, item := range included {
		entity := asMap(item)
		if entity == nil {
			continue
		}
		if urn, ok := entity["entityUrn"].(string); ok {
			lookup[urn] = entity
		}
	}

	resolved := asMap(resolve(data, lookup, false, make(map[string]bool)))
	if resolved == nil {
		return data
	}
	return resolved
}

// Included returns the raw included entity list from an envelope.
func Included(raw map[string]any) []map[string]any {
	items := asSlice(raw["included"])
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if entity := asMap(item); entity != nil {
			out = append(out, entity)
		}
	}
	return out
}

// resolve walks the tree. A key starting with "*" marks its value (or each
// element, for lists) as a reference; resolved references are mirrored under
// the bare key when the original object does not already define it. The
// inflight set breaks reference cycles, leaving the raw URN in place.
func resolve(obj any, lookup map[string]map[string]any, isRef bool, inflight map[string]bool) any {
	switch v := obj.(type) {
	case string:
		if !isRef || inflight[v] {
			return v
		}
		entity, ok := lookup[v]
		if !ok {
			return v
		}
		inflight[v] = true
		resolved := resolve(entity, lookup, false, inflight)
		delete(inflight, v)
		return resolved
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			keyIsRef := strings.HasPrefix(k, "*")
			rv := resolve(val, lookup, keyIsRef, inflight)
			out[k] = rv
			if keyIsRef {
				bare := k[1:]
				if _, exists := v[bare]; !exists {
					out[bare] = rv
				}
			}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = resolve(item, lookup, isRef, inflight)
		}
		return out
	default:
		return obj
	}
}

// extractProfileSection pulls a section's entries out of a denormalized
// profile. Newer payloads expose a view object with direct elements; older
// ones nest them under the profile key, optionally grouped one level deeper
// (positions inside position groups).
func extractProfileSection(profile map[string]any, viewKey, profileKey, nestedGroupKey string) []map[string]any {
	if view := asMap(profile[viewKey]); view != nil {
		if elements := mapSlice(view["elements"]); len(elements) > 0 {
			return elements
		}
	}

	prof := asMap(profile[profileKey])
	if prof == nil {
		return nil
	}
	elements := mapSlice(prof["*elements"])
	if len(elements) == 0 {
		return nil
	}
	if nestedGroupKey == "" {
		return elements
	}
	var out []map[string]any
	for _, group := range elements {
		if nested := asMap(group[nestedGroupKey]); nested != nil {
			out = append(out, mapSlice(nested["*elements"])...)
		}
	}
	return out
}

// sectionFromIncluded collects included entities whose $type contains one of
// the patterns. Grouping and view wrapper entities are never section entries.
func sectionFromIncluded(included []map[string]any, patterns []string) []map[string]any {
	var out []map[string]any
	for _, entity := range included {
		t, _ := entity["$type"].(string)
		if strings.Contains(t, "Group") || strings.Contains(t, "View") {
			continue
		}
		for _, p := range patterns {
			if strings.Contains(t, p) {
				out = append(out, entity)
				break
			}
		}
	}
	return out
}

// asMap returns v as a JSON object, or nil.
func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// asSlice returns v as a JSON array, or nil.
func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// mapSlice returns the object elements of a JSON array, dropping the rest.
func mapSlice(v any) []map[string]any {
	items := asSlice(v)
	if items == nil {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m := asMap(item); m != nil {
			out = append(out, m)
		}
	}
	return out
}

// getString fetches a string field, tolerating absence and wrong types.
func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// getInt fetches a numeric field. JSON numbers decode as float64.
func getInt(m map[string]any, key string) int {
	switch n := m[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}
