package output

import (
	"reflect"
	"strings"
)

func Plural(countable any, singular string, plural string) string {
	switch c := countable.(type) {
	case int:
		if c != 1 {
			return plural
		}
	default:
		if reflect.ValueOf(c).Len() != 1 {
			return plural
		}
	}
	return singular
}

// TagList renders tags the way they appear in a sidecar flow sequence, e.g. "[a, b]".
func TagList(tags []string, style func(string) string) string {
	styled := make([]string, len(tags))
	for i, tag := range tags {
		styled[i] = tag
		if style != nil {
			styled[i] = style(tag)
		}
	}
	return "[" + strings.Join(styled, ", ") + "]"
}
