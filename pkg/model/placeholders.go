package model

import (
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"
)

// maxPlaceholderDepth bounds recursive placeholder expansion: the same
// token may not re-expand past this many levels (spec.md §4.9).
const maxPlaceholderDepth = 10

// PlaceholderHandler resolves one placeholder name against the entry
// requesting expansion. Returning ok=false leaves the original token
// untouched. arg/hasArg carry the `{NAME:ARG}` argument, if any.
type PlaceholderHandler func(e *Entry, arg string, hasArg bool) (string, bool)

var placeholderHandlers = map[string]PlaceholderHandler{}

// RegisterPlaceholderHandler installs or replaces the handler for name
// (matched case-insensitively). There is no built-in OTP implementation;
// an application wires {HMACOTP}/{TIMEOTP} (or any custom placeholder)
// through this registry.
func RegisterPlaceholderHandler(name string, h PlaceholderHandler) {
	placeholderHandlers[strings.ToUpper(name)] = h
}

var (
	placeholderToken = regexp.MustCompile(`\{([^{}]+)\}`)
	envToken         = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)%`)
)

// ExpandPlaceholders substitutes every recognized `{NAME}`/`{NAME:ARG}`
// token and `%ENVVAR%` reference in text against e. Unknown placeholders
// and unresolved environment variables are left verbatim.
func (e *Entry) ExpandPlaceholders(text string) string {
	return expandPlaceholders(e, text, 0)
}

func expandPlaceholders(e *Entry, text string, depth int) string {
	if depth >= maxPlaceholderDepth {
		return text
	}
	text = placeholderToken.ReplaceAllStringFunc(text, func(tok string) string {
		inner := tok[1 : len(tok)-1]
		name, arg, hasArg := inner, "", false
		if i := strings.IndexByte(inner, ':'); i >= 0 {
			name, arg, hasArg = inner[:i], inner[i+1:], true
		}
		out, ok := resolvePlaceholder(e, strings.ToUpper(name), arg, hasArg)
		if !ok {
			return tok
		}
		return expandPlaceholders(e, out, depth+1)
	})
	return envToken.ReplaceAllStringFunc(text, func(tok string) string {
		if v, ok := os.LookupEnv(tok[1 : len(tok)-1]); ok {
			return v
		}
		return tok
	})
}

func resolvePlaceholder(e *Entry, name, arg string, hasArg bool) (string, bool) {
	switch name {
	case "TITLE":
		return e.Title(), true
	case "USERNAME":
		return e.UserName(), true
	case "PASSWORD":
		return e.Password(), true
	case "NOTES":
		return e.Notes(), true
	case "URL":
		if hasArg {
			return urlSubField(e.URL(), arg), true
		}
		return e.URL(), true
	case "UUID":
		return e.UUID().String(), true
	case "GROUP":
		if e.parent != nil {
			return e.parent.Name, true
		}
		return "", true
	case "GROUP_PATH":
		if e.parent != nil {
			return e.parent.Path(), true
		}
		return "", true
	case "GROUP_NOTES":
		if e.parent != nil {
			return e.parent.Notes, true
		}
		return "", true
	case "S":
		if !hasArg {
			return "", false
		}
		return e.StringValue(arg)
	case "C":
		return "", true
	case "ENV":
		if !hasArg {
			return "", false
		}
		return os.LookupEnv(arg)
	case "REF":
		if !hasArg {
			return "", false
		}
		return resolveFieldRef(e, arg)
	}
	if strings.HasPrefix(name, "DT_") {
		return expandDateTime(name), true
	}
	if h, ok := placeholderHandlers[name]; ok {
		return h(e, arg, hasArg)
	}
	return "", false
}

// urlSubField extracts one of the recognized :SCM/:HOST/:PORT/:PATH/
// :QUERY/:FRAGMENT/:USERNAME/:PASSWORD/:RMVSCM sub-fields from a URL
// string; a parse failure yields "" for every sub-field.
func urlSubField(rawURL, sub string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	switch strings.ToUpper(sub) {
	case "SCM":
		return u.Scheme
	case "HOST":
		return u.Hostname()
	case "PORT":
		return u.Port()
	case "PATH":
		return u.Path
	case "QUERY":
		return u.RawQuery
	case "FRAGMENT":
		return u.Fragment
	case "USERNAME":
		if u.User != nil {
			return u.User.Username()
		}
		return ""
	case "PASSWORD":
		if u.User != nil {
			p, _ := u.User.Password()
			return p
		}
		return ""
	case "RMVSCM":
		if u.Scheme != "" {
			return strings.TrimPrefix(rawURL, u.Scheme+"://")
		}
		return rawURL
	}
	return ""
}

func expandDateTime(name string) string {
	now := time.Now()
	n := name
	if strings.HasPrefix(n, "DT_UTC_") {
		now = now.UTC()
		n = "DT_" + strings.TrimPrefix(n, "DT_UTC_")
	}
	switch n {
	case "DT_SIMPLE":
		return now.Format("20060102150405")
	case "DT_YEAR":
		return now.Format("2006")
	case "DT_MONTH":
		return now.Format("01")
	case "DT_DAY":
		return now.Format("02")
	case "DT_HOUR":
		return now.Format("15")
	case "DT_MINUTE":
		return now.Format("04")
	case "DT_SECOND":
		return now.Format("05")
	}
	return ""
}
