package codegen

import (
	"fmt"
	"strings"

	"discogen/internal/discovery"
)

type direction int

const (
	dirSerialize direction = iota
	dirDeserialize
)

func (d direction) fnPrefix() string {
	if d == dirSerialize {
		return "serialize"
	}
	return "deserialize"
}

// emitCodecs writes serialize/deserialize functions for the named schema
// when, and only when, the schema requires wire conversion.
func (g *Generator) emitCodecs(name string, s *discovery.Schema) error {
	required, err := g.isConversionRequired(s)
	if err != nil {
		return err
	}
	if !required {
		return nil
	}
	if err := g.emitCodec(name, s, dirSerialize); err != nil {
		return err
	}
	return g.emitCodec(name, s, dirDeserialize)
}

func (g *Generator) emitCodec(name string, s *discovery.Schema, dir direction) error {
	w := g.w
	w.p("")
	w.pf("function %s%s(data: any): %s {", dir.fnPrefix(), name, name)
	w.in()

	if effectiveType(s) == "object" && len(s.Properties) > 0 {
		if s.AdditionalProperties != nil {
			apRequired, err := g.isConversionRequired(s.AdditionalProperties)
			if err != nil {
				return err
			}
			if apRequired {
				return schemaErrorf(name, "both properties and conversion-requiring additionalProperties")
			}
		}
		if err := g.emitObjectCodecBody(name, s, dir); err != nil {
			return err
		}
	} else {
		expr, err := g.conversionExpr(s, "data", dir)
		if err != nil {
			return &SchemaError{ID: name, Reason: err.Error()}
		}
		w.pf("return %s;", expr)
	}

	w.out()
	w.p("}")
	return nil
}

// emitObjectCodecBody writes the record-literal rebuild for an object
// schema: spread data as the base, then override each property that
// requires conversion. Serializers skip readOnly properties.
func (g *Generator) emitObjectCodecBody(name string, s *discovery.Schema, dir direction) error {
	w := g.w
	w.p("return {")
	w.in()
	w.p("...data,")
	for _, propName := range sortedKeys(s.Properties) {
		prop := s.Properties[propName]
		if prop == nil {
			continue
		}
		if dir == dirSerialize && prop.ReadOnly {
			continue
		}
		required, err := g.isConversionRequired(prop)
		if err != nil {
			return err
		}
		if !required {
			continue
		}
		read := "data" + bracketed(propName)
		expr, err := g.conversionExpr(prop, read, dir)
		if err != nil {
			return &SchemaError{ID: name, Reason: fmt.Sprintf("property %q: %s", propName, err.Error())}
		}
		if prop.Required {
			w.pf("%s: %s,", propKey(propName), expr)
		} else {
			w.pf("%s: %s !== undefined ? %s : undefined,", propKey(propName), read, expr)
		}
	}
	w.out()
	w.p("};")
	return nil
}

// conversionExpr renders the expression converting `expr` (a value of
// schema s) between runtime and wire form. Returns expr unchanged for
// identity conversions.
func (g *Generator) conversionExpr(s *discovery.Schema, expr string, dir direction) (string, error) {
	if s == nil {
		return expr, nil
	}
	if s.Ref != "" {
		required, err := g.isConversionRequired(s)
		if err != nil {
			return "", err
		}
		if !required {
			return expr, nil
		}
		// Named codec functions resolve mutual recursion at call time.
		return fmt.Sprintf("%s%s(%s)", dir.fnPrefix(), s.Ref, expr), nil
	}

	switch effectiveType(s) {
	case "string":
		leaf := func(inner string) string { return g.leafConversion(s.Format, inner, dir) }
		if s.Repeated {
			return mapExpr(expr, leaf("item")), nil
		}
		return leaf(expr), nil
	case "array":
		if s.Items == nil {
			return "", fmt.Errorf("array has no items")
		}
		if s.Items.Tuple != nil {
			return "", fmt.Errorf("tuple-typed array items are not supported")
		}
		inner, err := g.conversionExpr(s.Items.Schema, "item", dir)
		if err != nil {
			return "", err
		}
		return mapExpr(expr, inner), nil
	case "object":
		if len(s.Properties) > 0 {
			return g.inlineObjectExpr(s, expr, dir)
		}
		if s.AdditionalProperties != nil {
			inner, err := g.conversionExpr(s.AdditionalProperties, "v", dir)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Object.fromEntries(Object.entries(%s).map(([k, v]: [string, any]) => ([k, %s])))", expr, inner), nil
		}
		return expr, nil
	default:
		return expr, nil
	}
}

// inlineObjectExpr rebuilds an anonymous object value in a single
// expression, overriding converted members.
func (g *Generator) inlineObjectExpr(s *discovery.Schema, expr string, dir direction) (string, error) {
	var b strings.Builder
	b.WriteString("{ ...")
	b.WriteString(expr)
	for _, propName := range sortedKeys(s.Properties) {
		prop := s.Properties[propName]
		if prop == nil {
			continue
		}
		if dir == dirSerialize && prop.ReadOnly {
			continue
		}
		required, err := g.isConversionRequired(prop)
		if err != nil {
			return "", err
		}
		if !required {
			continue
		}
		read := expr + bracketed(propName)
		inner, err := g.conversionExpr(prop, read, dir)
		if err != nil {
			return "", err
		}
		b.WriteString(", ")
		b.WriteString(propKey(propName))
		b.WriteString(": ")
		if prop.Required {
			b.WriteString(inner)
		} else {
			b.WriteString(read + " !== undefined ? " + inner + " : undefined")
		}
	}
	b.WriteString(" }")
	return b.String(), nil
}

func (g *Generator) leafConversion(format, expr string, dir direction) string {
	if dir == dirSerialize {
		switch format {
		case "byte":
			g.needsBase64Encoder = true
			return fmt.Sprintf("encodeBase64(%s)", expr)
		case "int64", "uint64":
			return fmt.Sprintf("String(%s)", expr)
		case "date", "date-time", "google-datetime":
			return fmt.Sprintf("%s.toISOString()", expr)
		default:
			// google-duration and google-fieldmask are conversion-required
			// for uniformity but their codecs are identity.
			return expr
		}
	}
	switch format {
	case "byte":
		g.needsBase64Decoder = true
		return fmt.Sprintf("decodeBase64(%s as string)", expr)
	case "int64", "uint64":
		return fmt.Sprintf("BigInt(%s)", expr)
	case "date", "date-time", "google-datetime":
		return fmt.Sprintf("new Date(%s)", expr)
	default:
		return expr
	}
}

func mapExpr(expr, inner string) string {
	if inner == "item" {
		return expr
	}
	return fmt.Sprintf("%s.map((item: any) => (%s))", expr, inner)
}

func bracketed(name string) string {
	return "[" + fmt.Sprintf("%q", name) + "]"
}

// emitBase64Prelude writes the base64 helpers once, at the end of the
// module, if any byte-format codec referenced them.
func (g *Generator) emitBase64Prelude() {
	w := g.w
	if g.needsBase64Encoder || g.needsBase64Decoder {
		w.p("")
		w.p(`const base64abc = ["A","B","C","D","E","F","G","H","I","J","K","L","M","N","O","P","Q","R","S","T","U","V","W","X","Y","Z","a","b","c","d","e","f","g","h","i","j","k","l","m","n","o","p","q","r","s","t","u","v","w","x","y","z","0","1","2","3","4","5","6","7","8","9","+","/"];`)
	}
	if g.needsBase64Encoder {
		w.p("")
		w.p("/**")
		w.p(" * Encodes a Uint8Array into an RFC 4648 base64 string.")
		w.p(" */")
		w.p("function encodeBase64(bytes: Uint8Array): string {")
		w.in()
		w.p(`let result = "";`)
		w.p("let i;")
		w.p("const l = bytes.length;")
		w.p("for (i = 2; i < l; i += 3) {")
		w.in()
		w.p("result += base64abc[bytes[i - 2] >> 2];")
		w.p("result += base64abc[((bytes[i - 2] & 0x03) << 4) | (bytes[i - 1] >> 4)];")
		w.p("result += base64abc[((bytes[i - 1] & 0x0f) << 2) | (bytes[i] >> 6)];")
		w.p("result += base64abc[bytes[i] & 0x3f];")
		w.out()
		w.p("}")
		w.p("if (i === l + 1) {")
		w.in()
		w.p("result += base64abc[bytes[i - 2] >> 2];")
		w.p("result += base64abc[(bytes[i - 2] & 0x03) << 4];")
		w.p(`result += "==";`)
		w.out()
		w.p("}")
		w.p("if (i === l) {")
		w.in()
		w.p("result += base64abc[bytes[i - 2] >> 2];")
		w.p("result += base64abc[((bytes[i - 2] & 0x03) << 4) | (bytes[i - 1] >> 4)];")
		w.p("result += base64abc[(bytes[i - 1] & 0x0f) << 2];")
		w.p(`result += "=";`)
		w.out()
		w.p("}")
		w.p("return result;")
		w.out()
		w.p("}")
	}
	if g.needsBase64Decoder {
		w.p("")
		w.p("const base64inv: { [key: string]: number } = {};")
		w.p("for (let i = 0; i < base64abc.length; i++) {")
		w.in()
		w.p("base64inv[base64abc[i]] = i;")
		w.out()
		w.p("}")
		w.p("")
		w.p("/**")
		w.p(" * Decodes an RFC 4648 base64 string into a Uint8Array.")
		w.p(" */")
		w.p("function decodeBase64(b64: string): Uint8Array {")
		w.in()
		w.p(`b64 = b64.replace(/=+$/, "");`)
		w.p("const out: number[] = [];")
		w.p("let buffer = 0;")
		w.p("let bits = 0;")
		w.p("for (const c of b64) {")
		w.in()
		w.p("buffer = (buffer << 6) | base64inv[c];")
		w.p("bits += 6;")
		w.p("if (bits >= 8) {")
		w.in()
		w.p("bits -= 8;")
		w.p("out.push((buffer >> bits) & 0xff);")
		w.out()
		w.p("}")
		w.out()
		w.p("}")
		w.p("return new Uint8Array(out);")
		w.out()
		w.p("}")
	}
}
