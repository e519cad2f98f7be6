package codegen

import (
	"fmt"
	"strings"
	"unicode"
)

// PrimaryName case-corrects an API name using the words of its title.
// It walks name left-to-right; whenever a title word matches at the
// current position (case-insensitively), the word's original casing is
// spliced in and the cursor advances past it. Example: "bigquery" with
// words ["BigQuery", "API"] yields "BigQuery".
func PrimaryName(name string, words []string) string {
	out := []byte(name)
	for i := 0; i < len(out); {
		advanced := false
		for _, word := range words {
			if word == "" || i+len(word) > len(out) {
				continue
			}
			if strings.EqualFold(string(out[i:i+len(word)]), word) {
				copy(out[i:i+len(word)], word)
				i += len(word)
				advanced = true
				break
			}
		}
		if !advanced {
			i++
		}
	}
	return string(out)
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// camelJoin joins resource path segments into a camelCase identifier:
// ["things", "get"] → "thingsGet".
func camelJoin(parts []string) string {
	var b strings.Builder
	for i, p := range parts {
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(capitalize(p))
	}
	return b.String()
}

// pascalJoin joins resource path segments into a PascalCase identifier:
// ["things", "get"] → "ThingsGet".
func pascalJoin(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(capitalize(p))
	}
	return b.String()
}

// isSafeIdent reports whether s can be emitted as a bare TypeScript
// identifier. Keys that fail this (dots in particular) must be quoted
// in declarations and bracketed in read positions.
func isSafeIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		letter := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '_' || r == '$'
		digit := r >= '0' && r <= '9'
		if i == 0 && !letter {
			return false
		}
		if !letter && !digit {
			return false
		}
	}
	return true
}

// propKey renders an object key for a declaration position.
func propKey(name string) string {
	if isSafeIdent(name) {
		return name
	}
	return fmt.Sprintf("%q", name)
}

// propAccess renders a property read off the given receiver expression.
// Keys containing unsafe characters are bracketed, never bare.
func propAccess(recv, name string) string {
	if isSafeIdent(name) {
		return recv + "." + name
	}
	return recv + "[" + fmt.Sprintf("%q", name) + "]"
}

// argName sanitizes a parameter name into a usable positional argument
// identifier.
func argName(name string) string {
	if isSafeIdent(name) {
		return name
	}
	var b strings.Builder
	for i, r := range name {
		letter := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '_' || r == '$'
		digit := r >= '0' && r <= '9'
		if letter || (digit && i > 0) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
