package runtime

import (
	"fmt"
	"strings"
)

// ExpandTemplate substitutes `{name}` placeholders in tmpl with the string
// form of fields.All()'s values, the way a processor step's `arg` is
// expanded against the current context before invocation. `{{` and `}}`
// escape to literal braces.
func ExpandTemplate(tmpl string, fields map[string]any) string {
	var b strings.Builder
	b.Grow(len(tmpl))

	for i := 0; i < len(tmpl); i++ {
		switch tmpl[i] {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				b.WriteString(tmpl[i:])
				i = len(tmpl)
				break
			}
			name := tmpl[i+1 : i+end]
			if v, ok := fields[name]; ok {
				b.WriteString(formatValue(v))
			} else {
				b.WriteString(tmpl[i : i+end+1])
			}
			i += end
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			b.WriteByte('}')
		default:
			b.WriteByte(tmpl[i])
		}
	}

	return b.String()
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// ExpandAny walks a processor step's `arg` value (string, map, slice, or
// scalar as parsed from YAML) and expands every string leaf. Non-string
// leaves pass through unchanged.
func ExpandAny(arg any, fields map[string]any) any {
	switch t := arg.(type) {
	case string:
		return ExpandTemplate(t, fields)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = ExpandAny(v, fields)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = ExpandAny(v, fields)
		}
		return out
	default:
		return t
	}
}
