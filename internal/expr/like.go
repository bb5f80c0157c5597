package expr

import (
	"regexp"
	"strconv"
	"strings"

	"carcrash/internal/table"
)

type like struct {
	col     string
	pattern string
}

// Like matches a case-sensitive SQL LIKE pattern: % is any run of
// characters and _ is exactly one. A backslash escapes the next character.
// Non-text values are matched against their rendered text; Null never
// matches.
func Like(col, pattern string) Predicate { return like{col, pattern} }

func (l like) String() string { return l.col + " LIKE " + strconv.Quote(l.pattern) }

func (l like) Bind(s *table.Schema) (Eval, error) {
	i, err := s.Lookup("filter", l.col)
	if err != nil {
		return nil, err
	}
	match := compileLike(l.pattern)
	return func(r table.Row) bool {
		v := r.At(i)
		if v.IsNull() {
			return false
		}
		return match(v.Render())
	}, nil
}

// compileLike picks a string-function matcher for the common shapes
// (%x%, x%, %x, x) and falls back to an anchored regexp otherwise.
func compileLike(p string) func(string) bool {
	inner := strings.Trim(p, "%")
	if strings.ContainsAny(inner, `%_\`) {
		re := regexp.MustCompile(likeToRegexp(p))
		return re.MatchString
	}
	lead, trail := strings.HasPrefix(p, "%"), strings.HasSuffix(p, "%")
	switch {
	case inner == "" && lead:
		return func(string) bool { return true }
	case lead && trail:
		return func(s string) bool { return strings.Contains(s, inner) }
	case trail:
		return func(s string) bool { return strings.HasPrefix(s, inner) }
	case lead:
		return func(s string) bool { return strings.HasSuffix(s, inner) }
	}
	return func(s string) bool { return s == inner }
}

func likeToRegexp(p string) string {
	var b strings.Builder
	b.WriteString(`(?s)^`)
	escaped := false
	for _, r := range p {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(`.*`)
		case r == '_':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	if escaped {
		b.WriteString(`\\`)
	}
	b.WriteByte('$')
	return b.String()
}
