// Package render extracts placeholder names from template bodies and
// substitutes values for them. A placeholder is a {{name}} token where name
// is one or more word characters; anything else between braces is left alone.
package render

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Extract returns the placeholder names referenced in body, deduplicated in
// first-appearance order. An empty body yields an empty slice.
func Extract(body string) []string {
	matches := placeholderRe.FindAllStringSubmatch(body, -1)
	names := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// Error reports placeholders that could not be resolved during a render.
type Error struct {
	Missing []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("unresolved template variables: %s", strings.Join(e.Missing, ", "))
}

// Render replaces every {{name}} placeholder in body with the matching value
// from vars, stringified with fmt. Only tokens present in the original body
// are substitution points; placeholder-shaped text arriving inside a value is
// emitted literally, never re-scanned. Names referenced in body but absent
// from vars fail the render with an *Error; keys in vars that the body never
// references are ignored. The returned slice lists the names actually
// consumed, in body order.
func Render(body string, vars map[string]any) (string, []string, error) {
	used := make([]string, 0, 4)
	seen := make(map[string]struct{})
	var missing []string

	rendered := placeholderRe.ReplaceAllStringFunc(body, func(token string) string {
		name := token[2 : len(token)-2]
		value, ok := vars[name]
		if !ok {
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				missing = append(missing, name)
			}
			return token
		}
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			used = append(used, name)
		}
		return fmt.Sprint(value)
	})

	if len(missing) > 0 {
		return "", nil, &Error{Missing: missing}
	}
	return rendered, used, nil
}
