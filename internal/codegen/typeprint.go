package codegen

import (
	"fmt"
	"sort"
	"strings"

	"discogen/internal/discovery"
)

// effectiveType resolves the type tag of a node. Nodes without an
// explicit tag but with object members behave as objects; otherwise they
// behave as "any".
func effectiveType(s *discovery.Schema) string {
	if s.Type != "" {
		return s.Type
	}
	if len(s.Properties) > 0 || s.AdditionalProperties != nil {
		return "object"
	}
	return "any"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// typeExpr renders the TypeScript type expression for a type node.
func (g *Generator) typeExpr(s *discovery.Schema) (string, error) {
	if s == nil {
		return "any", nil
	}
	if s.Ref != "" {
		return s.Ref, nil
	}

	switch effectiveType(s) {
	case "any":
		return "any", nil
	case "boolean":
		return maybeRepeated("boolean", s.Repeated), nil
	case "integer", "number":
		return maybeRepeated("number", s.Repeated), nil
	case "string":
		return maybeRepeated(g.stringTypeExpr(s), s.Repeated), nil
	case "array":
		if s.Items == nil {
			return "", schemaErrorf(s.ID, "array has no items")
		}
		elem := s.Items.Schema
		if s.Items.Tuple != nil {
			// Tuple forms are typable; flatten to a homogeneous array of
			// the first member. The codec path rejects them outright.
			if len(s.Items.Tuple) == 0 {
				return "any[]", nil
			}
			elem = s.Items.Tuple[0]
		}
		inner, err := g.typeExpr(elem)
		if err != nil {
			return "", err
		}
		return arrayOf(inner), nil
	case "object":
		return g.objectTypeExpr(s)
	default:
		return "", schemaErrorf(s.ID, "unknown type %q", s.Type)
	}
}

func (g *Generator) stringTypeExpr(s *discovery.Schema) string {
	if len(s.Enum) > 0 {
		parts := make([]string, 0, len(s.Enum))
		for _, v := range s.Enum {
			parts = append(parts, fmt.Sprintf("%q", v))
		}
		return strings.Join(parts, " | ")
	}
	switch s.Format {
	case "byte":
		return "Uint8Array"
	case "int64", "uint64":
		return "bigint"
	case "date", "date-time", "google-datetime":
		return "Date"
	case "google-duration":
		return "number /* Duration */"
	case "google-fieldmask":
		return "string /* FieldMask */"
	default:
		return "string"
	}
}

func (g *Generator) objectTypeExpr(s *discovery.Schema) (string, error) {
	if s.AdditionalProperties != nil {
		inner, err := g.typeExpr(s.AdditionalProperties)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("{ [key: string]: %s }", inner), nil
	}
	if len(s.Properties) == 0 {
		return "{ [key: string]: any }", nil
	}
	var b strings.Builder
	b.WriteString("{ ")
	for i, name := range sortedKeys(s.Properties) {
		if i > 0 {
			b.WriteString("; ")
		}
		inner, err := g.typeExpr(s.Properties[name])
		if err != nil {
			return "", err
		}
		b.WriteString(propKey(name))
		if !s.Properties[name].Required {
			b.WriteString("?")
		}
		b.WriteString(": ")
		b.WriteString(inner)
	}
	b.WriteString(" }")
	return b.String(), nil
}

// arrayOf appends array syntax, parenthesizing compound expressions.
func arrayOf(inner string) string {
	if strings.ContainsAny(inner, " |") {
		return "(" + inner + ")[]"
	}
	return inner + "[]"
}

func maybeRepeated(inner string, repeated bool) string {
	if repeated {
		return arrayOf(inner)
	}
	return inner
}
