package codegen

import "discogen/internal/discovery"

// emitSchemaDecl writes the exported type declaration for one named
// schema: an interface for object shapes, a type alias otherwise.
func (g *Generator) emitSchemaDecl(name string, s *discovery.Schema) error {
	w := g.w
	w.p("")
	if s.Description != "" {
		w.docComment(s.Description, nil)
	}

	if effectiveType(s) == "object" && s.AdditionalProperties == nil {
		w.pf("export interface %s {", name)
		w.in()
		for _, propName := range sortedKeys(s.Properties) {
			prop := s.Properties[propName]
			if prop == nil {
				continue
			}
			t, err := g.typeExpr(prop)
			if err != nil {
				return &SchemaError{ID: name, Reason: err.Error()}
			}
			if prop.Description != "" {
				w.docComment(prop.Description, nil)
			}
			optional := "?"
			if prop.Required {
				optional = ""
			}
			w.pf("%s%s: %s;", propKey(propName), optional, t)
		}
		w.out()
		w.p("}")
		return nil
	}

	t, err := g.typeExpr(s)
	if err != nil {
		return &SchemaError{ID: name, Reason: err.Error()}
	}
	w.pf("export type %s = %s;", name, t)
	return nil
}
