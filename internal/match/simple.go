// Package match implements the "simple expression" predicate form shared
// by the field-reference search text (spec.md §4.9, W@S:text) and the
// query layer's string-based grep form (§4.11): space-separated terms,
// double-quoted phrases, and a leading '-' for negation.
package match

import (
	"regexp"
	"strings"
)

// Term is one parsed unit of a simple expression.
type Term struct {
	Text   string
	Negate bool
}

// ParseTerms tokenizes expr. A term wrapped in double quotes may contain
// spaces; a '-' immediately before a term (quoted or not) negates it.
func ParseTerms(expr string) []Term {
	var terms []Term
	i := 0
	for i < len(expr) {
		for i < len(expr) && expr[i] == ' ' {
			i++
		}
		if i >= len(expr) {
			break
		}
		negate := false
		if expr[i] == '-' {
			negate = true
			i++
		}
		var text string
		if i < len(expr) && expr[i] == '"' {
			i++
			start := i
			for i < len(expr) && expr[i] != '"' {
				i++
			}
			text = expr[start:i]
			if i < len(expr) {
				i++
			}
		} else {
			start := i
			for i < len(expr) && expr[i] != ' ' {
				i++
			}
			text = expr[start:i]
		}
		if text == "" {
			continue
		}
		terms = append(terms, Term{Text: text, Negate: negate})
	}
	return terms
}

// MatchesAny reports whether t's pattern matches any of values, as a
// case-insensitive regular expression (the default `=~` operator). An
// invalid pattern degrades to a literal case-insensitive substring check
// rather than failing the whole query.
func (t Term) MatchesAny(values []string) bool {
	if re, err := regexp.Compile("(?i)" + t.Text); err == nil {
		for _, v := range values {
			if re.MatchString(v) {
				return true
			}
		}
		return false
	}
	needle := strings.ToLower(t.Text)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

// Matches evaluates expr against values: every non-negated term must
// match at least one of values, and no negated term may match any.
func Matches(expr string, values []string) bool {
	for _, term := range ParseTerms(expr) {
		if term.MatchesAny(values) == term.Negate {
			return false
		}
	}
	return true
}
