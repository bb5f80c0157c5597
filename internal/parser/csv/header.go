package csv

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\uFEFF"

// StripHeaderBOM removes a UTF-8 BOM from the first header cell if present.
func StripHeaderBOM(headers []string) []string {
	if len(headers) == 0 {
		return headers
	}
	headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	return headers
}

// columnNames turns a raw header row into schema column names. Names are
// NFC-normalized; blank names become _cN after their position.
func columnNames(raw []string, opt Options) []string {
	raw = StripHeaderBOM(raw)
	out := make([]string, len(raw))
	for i, h := range raw {
		h = norm.NFC.String(strings.TrimSpace(h))
		if opt.NormalizeHeaders {
			h = NormalizeFieldName(h)
		}
		if h == "" {
			h = fmt.Sprintf("_c%d", i)
		}
		out[i] = h
	}
	return out
}

// NormalizeFieldName lowercases s, strips accents and keeps [a-z0-9_].
// Runs of separators collapse to a single underscore.
func NormalizeFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
