package model

import (
	"regexp"
	"strings"

	"github.com/kdbxkit/kdbx/internal/match"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// rewriteUUIDRefs replaces every "@I:<old>" target in a {REF:...} token
// with "@I:<new>", leaving all other text (including non-matching
// references) untouched. Used by Database.ChangeEntryUUID to keep
// field-reference tokens valid across a UUID reassignment.
func rewriteUUIDRefs(value string, oldID, newID kdbxtypes.UUID) string {
	oldTok := "@I:" + oldID.String()
	if !strings.Contains(value, oldTok) {
		return value
	}
	return strings.ReplaceAll(value, oldTok, "@I:"+newID.String())
}

// fieldRefArg splits a {REF:...} token's argument into its target field
// W, search field S, and the simple-expression search text.
var fieldRefArg = regexp.MustCompile(`^([TUPANI])@([TUPANIO]):(.*)$`)

// resolveFieldRef implements spec.md §4.9's {REF:W@S:text} resolution:
// search e's database in iteration order for the first entry whose S
// field matches text (a simple expression), then return that entry's W
// field. Resolving W=I returns the target's UUID as a formatted string.
func resolveFieldRef(e *Entry, arg string) (string, bool) {
	m := fieldRefArg.FindStringSubmatch(arg)
	if m == nil || e.db == nil {
		return "", false
	}
	want, search, text := m[1], m[2], m[3]

	for _, candidate := range e.db.AllEntries() {
		if !fieldMatches(candidate, search, text) {
			continue
		}
		return fieldValue(candidate, want), true
	}
	return "", false
}

func fieldMatches(e *Entry, search, text string) bool {
	if search == "I" {
		return strings.EqualFold(e.UUID().String(), strings.TrimSpace(text))
	}
	if search == "O" {
		var values []string
		for _, k := range e.Strings.Keys() {
			if isStandardField(k) {
				continue
			}
			if v, ok := e.Strings.Get(k); ok && v.HasValue {
				values = append(values, v.Value)
			}
		}
		return match.Matches(text, values)
	}
	return match.Matches(text, []string{fieldValue(e, search)})
}

func fieldValue(e *Entry, code string) string {
	switch code {
	case "T":
		return e.Title()
	case "U":
		return e.UserName()
	case "P":
		return e.Password()
	case "A":
		return e.URL()
	case "N":
		return e.Notes()
	case "I":
		return e.UUID().String()
	}
	return ""
}
