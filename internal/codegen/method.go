package codegen

import (
	"strings"
)

// emitMethod writes one request method of the primary class.
func (g *Generator) emitMethod(rec *methodRecord) error {
	w := g.w

	var params []docParam
	for _, p := range rec.pathParams {
		if p.schema.Description != "" {
			params = append(params, docParam{name: argName(p.name), text: p.schema.Description})
		}
	}
	if rec.description != "" || len(params) > 0 {
		w.docComment(rec.description, params)
	}

	var args []string
	for _, p := range rec.pathParams {
		t, err := g.typeExpr(p.schema)
		if err != nil {
			return err
		}
		args = append(args, argName(p.name)+": "+t)
	}
	if rec.request != nil {
		t, err := g.typeExpr(rec.request)
		if err != nil {
			return err
		}
		args = append(args, "req: "+t)
	}
	optsName := rec.pascalName + "Options"
	if len(rec.queryParams) > 0 {
		args = append(args, "opts: "+optsName+" = {}")
	}

	retType := "void"
	if rec.response != nil {
		t, err := g.typeExpr(rec.response)
		if err != nil {
			return err
		}
		retType = t
	}

	w.pf("async %s(%s): Promise<%s> {", rec.camelName, strings.Join(args, ", "), retType)
	w.in()

	if rec.request != nil && rec.request.Ref != "" {
		required, err := g.isConversionRequired(rec.request)
		if err != nil {
			return err
		}
		if required {
			w.pf("req = serialize%s(req);", rec.request.Ref)
		}
	}
	if len(rec.queryParams) > 0 {
		required, err := g.isConversionRequired(g.schemas[optsName])
		if err != nil {
			return err
		}
		if required {
			w.pf("opts = serialize%s(opts);", optsName)
		}
	}

	w.pf("const url = new URL(`${this.#baseUrl}%s`);", interpolatePath(rec.path, rec.pathParams))

	for _, p := range rec.queryParams {
		access := propAccess("opts", p.name)
		w.pf("if (%s !== undefined) {", access)
		w.in()
		if p.schema.Repeated {
			w.pf("for (const v of %s) {", access)
			w.in()
			w.pf("url.searchParams.append(%q, String(v));", p.name)
			w.out()
			w.p("}")
		} else {
			w.pf("url.searchParams.append(%q, String(%s));", p.name, access)
		}
		w.out()
		w.p("}")
	}

	hasBody := rec.request != nil
	if hasBody {
		w.p("const body = JSON.stringify(req);")
	}

	if rec.response != nil {
		w.p("const data = await request(url.href, {")
	} else {
		w.p("await request(url.href, {")
	}
	w.in()
	w.p("client: this.#client,")
	w.pf("method: %q,", rec.httpMethod)
	if hasBody {
		w.p("body,")
	}
	w.out()
	w.p("});")

	if rec.response != nil {
		if rec.response.Ref != "" {
			required, err := g.isConversionRequired(rec.response)
			if err != nil {
				return err
			}
			if required {
				w.pf("return deserialize%s(data);", rec.response.Ref)
			} else {
				w.pf("return data as %s;", rec.response.Ref)
			}
		} else {
			w.pf("return data as %s;", retType)
		}
	}

	w.out()
	w.p("}")
	return nil
}

// interpolatePath substitutes {name} and {+name} template tokens with
// template-literal interpolations of the matching path argument. The two
// token forms are treated identically.
func interpolatePath(path string, pathParams []param) string {
	out := path
	for _, p := range pathParams {
		repl := "${ " + argName(p.name) + " }"
		out = strings.ReplaceAll(out, "{+"+p.name+"}", repl)
		out = strings.ReplaceAll(out, "{"+p.name+"}", repl)
	}
	return out
}
