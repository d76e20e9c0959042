package catalog

import (
	"fmt"
	"strings"
)

// quote brackets a name segment, doubling any closing bracket.
func quote(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// qualify appends a quoted segment to a unique name prefix.
func qualify(prefix, name string) string {
	return prefix + "." + quote(name)
}

// ParseIdentifier splits a compound MDX identifier such as
// "[Store].[USA].[CA]" into its segments. Unbracketed segments are taken as
// written.
func ParseIdentifier(s string) ([]string, error) {
	var segs []string
	i := 0
	for i < len(s) {
		if s[i] == '[' {
			var b strings.Builder
			i++
			closed := false
			for i < len(s) {
				if s[i] == ']' {
					if i+1 < len(s) && s[i+1] == ']' {
						b.WriteByte(']')
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				b.WriteByte(s[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated bracket in identifier %q", s)
			}
			segs = append(segs, b.String())
		} else {
			end := strings.IndexByte(s[i:], '.')
			if end < 0 {
				end = len(s) - i
			}
			seg := strings.TrimSpace(s[i : i+end])
			if seg == "" {
				return nil, fmt.Errorf("empty segment in identifier %q", s)
			}
			segs = append(segs, seg)
			i += end
		}

		if i == len(s) {
			break
		}
		if s[i] != '.' {
			return nil, fmt.Errorf("unexpected %q at offset %d in identifier %q", s[i], i, s)
		}
		i++
		if i == len(s) {
			return nil, fmt.Errorf("identifier %q ends with a separator", s)
		}
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("empty identifier")
	}
	return segs, nil
}
