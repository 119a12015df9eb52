package c4group

import (
	"path"
	"strings"
)

// Match reports whether name matches the group wildcard pattern. Patterns are
// case-insensitive, support '*' and '?', and may list alternatives separated
// by '|' (for example "*.png|*.bmp").
func Match(pattern, name string) bool {
	name = strings.ToLower(name)
	for _, alt := range strings.Split(pattern, "|") {
		ok, err := path.Match(strings.ToLower(alt), name)
		if err == nil && ok {
			return true
		}
	}
	return false
}
