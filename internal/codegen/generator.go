package codegen

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"discogen/internal/discovery"
)

// runtimeModule is the well-known URL of the auth/HTTP helper module the
// generated code imports from.
const runtimeModule = "/_/base@v1/mod.ts"

// Generator compiles one Discovery document into one TypeScript client
// module. An instance is populated from a single input, produces one
// output string, and is then discarded; it holds no cross-request state.
type Generator struct {
	doc     *discovery.Document
	selfURL string
	primary string

	// schemas is a private clone of the document's schema table. The
	// method emitter registers synthetic query-options schemas here, so
	// the caller's document is never mutated.
	schemas map[string]*discovery.Schema

	w                  *writer
	needsBase64Encoder bool
	needsBase64Decoder bool
}

// New validates the document's identity fields and prepares a generator.
// selfURL is the canonical URL the output will be served from; it is
// embedded in the file header for provenance.
func New(doc *discovery.Document, selfURL string) (*Generator, error) {
	if doc == nil {
		return nil, fmt.Errorf("codegen: nil document")
	}
	if doc.Name == "" {
		return nil, schemaErrorf(doc.ID, "document has no name")
	}
	if doc.Title == "" {
		return nil, schemaErrorf(doc.ID, "document has no title")
	}
	if doc.RootURL == "" {
		return nil, schemaErrorf(doc.ID, "document has no rootUrl")
	}

	schemas, err := cloneSchemas(doc.Schemas)
	if err != nil {
		return nil, fmt.Errorf("codegen: clone schema table: %w", err)
	}

	return &Generator{
		doc:     doc,
		selfURL: selfURL,
		primary: capitalize(PrimaryName(doc.Name, strings.Fields(doc.Title))),
		schemas: schemas,
		w:       &writer{},
	}, nil
}

// PrimaryClassName returns the case-corrected client class name.
func (g *Generator) PrimaryClassName() string {
	return g.primary
}

// Generate produces the complete module text. Output is deterministic
// for a fixed input: every map traversal is sorted and the emit order is
// fixed (header, preamble, class, types interleaved with codecs, base64
// prelude).
func (g *Generator) Generate() (string, error) {
	records, err := flattenMethods(g.doc)
	if err != nil {
		return "", err
	}

	// Synthetic query-options schemas must exist before the type and
	// codec passes run.
	for i := range records {
		g.registerOptionsSchema(&records[i])
	}

	g.emitHeader()
	g.emitPreamble()

	if err := g.emitClass(records); err != nil {
		return "", err
	}

	names := make([]string, 0, len(g.schemas))
	for name := range g.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := g.emitSchemaDecl(name, g.schemas[name]); err != nil {
			return "", err
		}
		if err := g.emitCodecs(name, g.schemas[name]); err != nil {
			return "", err
		}
	}

	g.emitBase64Prelude()

	return g.w.String(), nil
}

func cloneSchemas(in map[string]*discovery.Schema) (map[string]*discovery.Schema, error) {
	out := make(map[string]*discovery.Schema, len(in))
	if len(in) == 0 {
		return out, nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// registerOptionsSchema inserts an object schema holding rec's query
// parameters into the schema table under "<PascalCaseName>Options".
func (g *Generator) registerOptionsSchema(rec *methodRecord) {
	if len(rec.queryParams) == 0 {
		return
	}
	name := rec.pascalName + "Options"
	props := make(map[string]*discovery.Schema, len(rec.queryParams))
	for _, p := range rec.queryParams {
		props[p.name] = p.schema
	}
	g.schemas[name] = &discovery.Schema{
		ID:          name,
		Type:        "object",
		Description: fmt.Sprintf("Additional options for %s#%s.", g.primary, rec.camelName),
		Properties:  props,
	}
}

func (g *Generator) emitHeader() {
	w := g.w
	w.p("// Copyright 2026 the discogen authors. All rights reserved. MIT license.")
	banner := g.doc.Title + " Client"
	w.p("/**")
	w.p(" * " + escapeComment(banner))
	w.p(" * " + strings.Repeat("=", len(banner)))
	if g.doc.Description != "" {
		w.p(" *")
		for _, line := range wrapText(g.doc.Description, 80-3) {
			w.p(" * " + escapeComment(line))
		}
	}
	w.p(" *")
	if g.doc.DocumentationLink != "" {
		w.p(" * Docs: " + escapeComment(g.doc.DocumentationLink))
	}
	w.p(" * Source: " + escapeComment(g.selfURL))
	w.p(" */")
	w.p("")
}

func (g *Generator) emitPreamble() {
	w := g.w
	w.pf("import { auth, CredentialsClient, GoogleAuth, request } from %q;", runtimeModule)
	w.p("export { auth, GoogleAuth };")
	w.p("export type { CredentialsClient };")
	w.p("")
}

func (g *Generator) emitClass(records []methodRecord) error {
	w := g.w
	if g.doc.Description != "" {
		w.docComment(g.doc.Description, nil)
	}
	w.pf("export class %s {", g.primary)
	w.in()
	w.p("#client: CredentialsClient | undefined;")
	w.p("#baseUrl: string;")
	w.p("")
	w.pf("constructor(client?: CredentialsClient, baseUrl: string = %q) {", g.doc.BaseAddress())
	w.in()
	w.p("this.#client = client;")
	w.p("this.#baseUrl = baseUrl;")
	w.out()
	w.p("}")

	for i := range records {
		w.p("")
		if err := g.emitMethod(&records[i]); err != nil {
			return err
		}
	}

	w.out()
	w.p("}")
	return nil
}
