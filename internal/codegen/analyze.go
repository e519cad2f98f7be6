package codegen

import "discogen/internal/discovery"

// isConversionRequired reports whether marshalling s between wire JSON
// and the ergonomic runtime type performs nontrivial work. Each call is
// one query with its own visited set; sharing the set across queries
// would let an early cycle cut poison later answers.
func (g *Generator) isConversionRequired(s *discovery.Schema) (bool, error) {
	return g.conversionRequired(s, map[string]bool{})
}

func (g *Generator) conversionRequired(s *discovery.Schema, visited map[string]bool) (bool, error) {
	if s == nil {
		return false, nil
	}

	if s.Ref != "" {
		// visited tracks the refs on the current traversal stack. A ref
		// back into the stack is a cycle and answers true: cyclic
		// schemas get codecs as mutually recursive named functions,
		// identity in the degenerate case. The mark is removed on the
		// way out so separate references to the same schema (diamonds)
		// are not mistaken for cycles.
		if visited[s.Ref] {
			return true, nil
		}
		target, ok := g.schemas[s.Ref]
		if !ok {
			return false, schemaErrorf(s.Ref, "unresolved $ref")
		}
		visited[s.Ref] = true
		required, err := g.conversionRequired(target, visited)
		delete(visited, s.Ref)
		return required, err
	}

	switch effectiveType(s) {
	case "any", "boolean", "integer", "number":
		return false, nil
	case "string":
		return s.Format != "", nil
	case "array":
		if s.Items == nil {
			return false, schemaErrorf(s.ID, "array has no items")
		}
		if s.Items.Tuple != nil {
			return false, schemaErrorf(s.ID, "tuple-typed array items are not supported")
		}
		return g.conversionRequired(s.Items.Schema, visited)
	case "object":
		for _, name := range sortedKeys(s.Properties) {
			prop := s.Properties[name]
			if prop == nil || prop.ReadOnly {
				continue
			}
			required, err := g.conversionRequired(prop, visited)
			if err != nil {
				return false, err
			}
			if required {
				return true, nil
			}
		}
		if s.AdditionalProperties != nil {
			return g.conversionRequired(s.AdditionalProperties, visited)
		}
		return false, nil
	default:
		return false, schemaErrorf(s.ID, "unknown type %q", s.Type)
	}
}
