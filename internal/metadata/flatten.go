package metadata

// Flatten turns a nested map into a single-level map whose keys are the
// dot-joined paths of the original nesting.
//
//	{"a": {"b": 1}, "c": 2}  →  {"a.b": 1, "c": 2}
//
// Non-map values (including slices) are carried over unchanged.
func Flatten(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	flattenInto(out, "", m)
	return out
}

func flattenInto(out map[string]any, prefix string, m map[string]any) {
	for key, value := range m {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flattenInto(out, name, nested)
			continue
		}
		out[name] = value
	}
}
