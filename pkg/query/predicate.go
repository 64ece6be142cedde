package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kdbxkit/kdbx/internal/match"
	"github.com/kdbxkit/kdbx/pkg/model"
)

// Predicate is what every surface form (functional, declarative, simple
// expression) compiles down to.
type Predicate func(model.Object) bool

// And is satisfied when every sub-predicate is.
func And(preds ...Predicate) Predicate {
	return func(o model.Object) bool {
		for _, p := range preds {
			if !p(o) {
				return false
			}
		}
		return true
	}
}

// Or is satisfied when any sub-predicate is.
func Or(preds ...Predicate) Predicate {
	return func(o model.Object) bool {
		for _, p := range preds {
			if p(o) {
				return true
			}
		}
		return false
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(o model.Object) bool { return !p(o) }
}

// FieldValue reads a named field off a Group or Entry by a
// case-insensitive well-known name, falling back (for Entry) to an
// arbitrary string field of that exact key. The second return is false
// when the field doesn't apply to o's concrete kind or was never set.
func FieldValue(o model.Object, field string) (string, bool) {
	switch v := o.(type) {
	case *model.Entry:
		switch strings.ToLower(field) {
		case "title":
			return v.Title(), true
		case "username", "user":
			return v.UserName(), true
		case "password", "pass":
			return v.Password(), true
		case "url":
			return v.URL(), true
		case "notes":
			return v.Notes(), true
		case "uuid":
			return v.UUID().String(), true
		case "tags":
			return strings.Join(v.TagList(), ","), true
		default:
			if s, ok := v.String(field); ok {
				return s.Value, s.HasValue
			}
			return "", false
		}
	case *model.Group:
		switch strings.ToLower(field) {
		case "name":
			return v.Name, true
		case "notes":
			return v.Notes, true
		case "path":
			return v.Path(), true
		case "uuid":
			return v.UUID().String(), true
		case "tags":
			return strings.Join(v.TagList(), ","), true
		default:
			return "", false
		}
	}
	return "", false
}

// searchableFields is what a simple expression with no explicit field
// list searches across.
var searchableFields = []string{"title", "username", "url", "notes"}

// CompileSimple compiles a simple expression (space-separated terms,
// double-quoted phrases, leading '-' negates) into a Predicate that
// matches when every non-negated term matches at least one of fields
// (searchableFields if none given) and no negated term matches any.
func CompileSimple(expr string, fields ...string) Predicate {
	if len(fields) == 0 {
		fields = searchableFields
	}
	return func(o model.Object) bool {
		var values []string
		for _, f := range fields {
			if v, ok := FieldValue(o, f); ok {
				values = append(values, v)
			}
		}
		return match.Matches(expr, values)
	}
}

// CompileDeclarative compiles a tagged structure into a Predicate: a
// map implies AND across its entries, a slice implies OR across its
// elements, and a leaf is either a bare field->value equality or a
// field->{op: operand} comparison. "-not"/"-and"/"-or" keys on a map
// combine nested sub-queries rather than naming a field.
func CompileDeclarative(node any) (Predicate, error) {
	switch v := node.(type) {
	case map[string]any:
		var preds []Predicate
		for field, val := range v {
			switch field {
			case "-not":
				sub, err := CompileDeclarative(val)
				if err != nil {
					return nil, err
				}
				preds = append(preds, Not(sub))
			case "-and":
				sub, err := compileList(val)
				if err != nil {
					return nil, err
				}
				preds = append(preds, And(sub...))
			case "-or":
				sub, err := compileList(val)
				if err != nil {
					return nil, err
				}
				preds = append(preds, Or(sub...))
			default:
				leaf, err := compileLeaf(field, val)
				if err != nil {
					return nil, err
				}
				preds = append(preds, leaf)
			}
		}
		return And(preds...), nil
	case []any:
		sub, err := compileList(v)
		if err != nil {
			return nil, err
		}
		return Or(sub...), nil
	default:
		return nil, fmt.Errorf("query: unsupported declarative query node %T", node)
	}
}

func compileList(node any) ([]Predicate, error) {
	list, ok := node.([]any)
	if !ok {
		return nil, fmt.Errorf("query: expected a list, got %T", node)
	}
	var preds []Predicate
	for _, item := range list {
		p, err := CompileDeclarative(item)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

func compileLeaf(field string, val any) (Predicate, error) {
	if m, ok := val.(map[string]any); ok {
		for op, operand := range m {
			return compileOp(field, op, operand)
		}
		return nil, fmt.Errorf("query: field %q has an empty operator map", field)
	}
	return fieldEquals(field, val), nil
}

func fieldEquals(field string, want any) Predicate {
	wantStr := fmt.Sprint(want)
	return func(o model.Object) bool {
		v, ok := FieldValue(o, field)
		return ok && v == wantStr
	}
}

func compileOp(field, op string, operand any) (Predicate, error) {
	switch op {
	case "eq":
		return fieldEquals(field, operand), nil
	case "ne":
		return Not(fieldEquals(field, operand)), nil
	case "lt":
		return stringCompare(field, operand, func(c int) bool { return c < 0 }), nil
	case "le":
		return stringCompare(field, operand, func(c int) bool { return c <= 0 }), nil
	case "gt":
		return stringCompare(field, operand, func(c int) bool { return c > 0 }), nil
	case "ge":
		return stringCompare(field, operand, func(c int) bool { return c >= 0 }), nil
	case "=~":
		return regexMatch(field, operand, false), nil
	case "!~":
		return regexMatch(field, operand, true), nil
	case "==":
		return numericCompare(field, operand, func(c int) bool { return c == 0 }), nil
	case "!=":
		return numericCompare(field, operand, func(c int) bool { return c != 0 }), nil
	case "<":
		return numericCompare(field, operand, func(c int) bool { return c < 0 }), nil
	case "<=":
		return numericCompare(field, operand, func(c int) bool { return c <= 0 }), nil
	case ">":
		return numericCompare(field, operand, func(c int) bool { return c > 0 }), nil
	case ">=":
		return numericCompare(field, operand, func(c int) bool { return c >= 0 }), nil
	case "!":
		return boolCheck(field, false), nil
	case "!!":
		return boolCheck(field, true), nil
	case "-true":
		return boolCheck(field, true), nil
	case "-false":
		return boolCheck(field, false), nil
	case "-defined":
		return definedCheck(field, true), nil
	case "-undef":
		return definedCheck(field, false), nil
	case "-empty":
		return emptyCheck(field, true), nil
	case "-nonempty":
		return emptyCheck(field, false), nil
	}
	return nil, fmt.Errorf("query: unknown operator %q", op)
}

func stringCompare(field string, operand any, satisfies func(cmp int) bool) Predicate {
	want := fmt.Sprint(operand)
	return func(o model.Object) bool {
		v, ok := FieldValue(o, field)
		if !ok {
			return false
		}
		return satisfies(strings.Compare(v, want))
	}
}

func numericCompare(field string, operand any, satisfies func(cmp int) bool) Predicate {
	wantStr := fmt.Sprint(operand)
	want, wantOK := parseFloat(wantStr)
	return func(o model.Object) bool {
		if !wantOK {
			return false
		}
		v, ok := FieldValue(o, field)
		if !ok {
			return false
		}
		got, ok := parseFloat(v)
		if !ok {
			return false
		}
		switch {
		case got < want:
			return satisfies(-1)
		case got > want:
			return satisfies(1)
		default:
			return satisfies(0)
		}
	}
}

func regexMatch(field string, operand any, negate bool) Predicate {
	term := match.Term{Text: fmt.Sprint(operand)}
	return func(o model.Object) bool {
		v, ok := FieldValue(o, field)
		if !ok {
			return negate
		}
		matched := term.MatchesAny([]string{v})
		if negate {
			return !matched
		}
		return matched
	}
}

func boolCheck(field string, want bool) Predicate {
	return func(o model.Object) bool {
		v, ok := FieldValue(o, field)
		if !ok {
			return false
		}
		got, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false
		}
		return got == want
	}
}

func definedCheck(field string, want bool) Predicate {
	return func(o model.Object) bool {
		_, ok := FieldValue(o, field)
		return ok == want
	}
}

func emptyCheck(field string, want bool) Predicate {
	return func(o model.Object) bool {
		v, ok := FieldValue(o, field)
		isEmpty := !ok || v == ""
		return isEmpty == want
	}
}
