package codegen_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"discogen/internal/codegen"
	"discogen/internal/discovery"
)

func parseDoc(t *testing.T, doc map[string]any) *discovery.Document {
	t.Helper()
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal doc: %v", err)
	}
	parsed, err := discovery.ParseDocument(raw)
	if err != nil {
		t.Fatalf("parse doc: %v", err)
	}
	return parsed
}

func generate(t *testing.T, doc map[string]any) string {
	t.Helper()
	gen, err := codegen.New(parseDoc(t, doc), "https://example.com/v1/test:v1.ts")
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	out, err := gen.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return out
}

func newGenerator(t *testing.T, doc map[string]any) (*codegen.Generator, error) {
	t.Helper()
	return codegen.New(parseDoc(t, doc), "https://example.com/self.ts")
}

func minimalDoc() map[string]any {
	return map[string]any{
		"id":        "mini:v1",
		"name":      "mini",
		"version":   "v1",
		"title":     "Mini API",
		"rootUrl":   "https://mini/",
		"resources": map[string]any{},
		"schemas":   map[string]any{},
	}
}

func TestMinimalAPI(t *testing.T) {
	out := generate(t, minimalDoc())

	if !strings.Contains(out, "export class Mini {") {
		t.Fatalf("missing primary class:\n%s", out)
	}
	if !strings.Contains(out, `constructor(client?: CredentialsClient, baseUrl: string = "https://mini/") {`) {
		t.Fatalf("missing constructor with default base URL:\n%s", out)
	}
	if strings.Contains(out, "async ") {
		t.Fatalf("expected no methods:\n%s", out)
	}
	if strings.Contains(out, "export interface") || strings.Contains(out, "function serialize") {
		t.Fatalf("expected no types or codecs:\n%s", out)
	}
}

func TestDeterminism(t *testing.T) {
	doc := minimalDoc()
	doc["resources"] = map[string]any{
		"things": map[string]any{
			"methods": map[string]any{
				"list": map[string]any{
					"httpMethod": "GET",
					"path":       "things",
					"response":   map[string]any{"$ref": "ThingList"},
				},
				"create": map[string]any{
					"httpMethod": "POST",
					"path":       "things",
					"request":    map[string]any{"$ref": "Thing"},
					"response":   map[string]any{"$ref": "Thing"},
				},
			},
		},
	}
	doc["schemas"] = map[string]any{
		"Thing": map[string]any{
			"id":   "Thing",
			"type": "object",
			"properties": map[string]any{
				"size":  map[string]any{"type": "string", "format": "int64"},
				"blob":  map[string]any{"type": "string", "format": "byte"},
				"label": map[string]any{"type": "string"},
			},
		},
		"ThingList": map[string]any{
			"id":   "ThingList",
			"type": "object",
			"properties": map[string]any{
				"items": map[string]any{
					"type":  "array",
					"items": map[string]any{"$ref": "Thing"},
				},
			},
		},
	}

	first := generate(t, doc)
	for i := 0; i < 5; i++ {
		if next := generate(t, doc); next != first {
			t.Fatalf("output differs between runs")
		}
	}
}

func TestSingleMethodNoParams(t *testing.T) {
	doc := minimalDoc()
	doc["resources"] = map[string]any{
		"things": map[string]any{
			"methods": map[string]any{
				"list": map[string]any{
					"httpMethod": "GET",
					"path":       "things",
					"response":   map[string]any{"$ref": "ThingList"},
				},
			},
		},
	}
	doc["schemas"] = map[string]any{
		"ThingList": map[string]any{
			"id":   "ThingList",
			"type": "object",
			"properties": map[string]any{
				"count": map[string]any{"type": "integer"},
			},
		},
	}
	out := generate(t, doc)

	if !strings.Contains(out, "async thingsList(): Promise<ThingList> {") {
		t.Fatalf("missing method signature:\n%s", out)
	}
	if !strings.Contains(out, "const url = new URL(`${this.#baseUrl}things`);") {
		t.Fatalf("missing URL construction:\n%s", out)
	}
	if !strings.Contains(out, `method: "GET",`) || !strings.Contains(out, "client: this.#client,") {
		t.Fatalf("missing request call:\n%s", out)
	}
	if !strings.Contains(out, "return data as ThingList;") {
		t.Fatalf("missing response cast:\n%s", out)
	}
	if !strings.Contains(out, "count?: number;") {
		t.Fatalf("missing interface field:\n%s", out)
	}
	if strings.Contains(out, "function serialize") || strings.Contains(out, "function deserialize") {
		t.Fatalf("expected no codecs:\n%s", out)
	}
}

func TestPathTemplateAndQuery(t *testing.T) {
	doc := minimalDoc()
	doc["resources"] = map[string]any{
		"things": map[string]any{
			"methods": map[string]any{
				"get": map[string]any{
					"httpMethod":     "GET",
					"path":           "things/{+thingId}",
					"parameterOrder": []string{"thingId"},
					"parameters": map[string]any{
						"thingId":  map[string]any{"location": "path", "type": "string", "required": true},
						"pageSize": map[string]any{"location": "query", "type": "integer"},
						"filter":   map[string]any{"location": "query", "type": "string"},
					},
					"response": map[string]any{"$ref": "Thing"},
				},
			},
		},
	}
	doc["schemas"] = map[string]any{
		"Thing": map[string]any{"id": "Thing", "type": "object", "properties": map[string]any{}},
	}
	out := generate(t, doc)

	if !strings.Contains(out, "async thingsGet(thingId: string, opts: ThingsGetOptions = {}): Promise<Thing> {") {
		t.Fatalf("missing signature:\n%s", out)
	}
	if !strings.Contains(out, "const url = new URL(`${this.#baseUrl}things/${ thingId }`);") {
		t.Fatalf("missing path interpolation:\n%s", out)
	}
	filterGuard := strings.Index(out, `if (opts.filter !== undefined) {`)
	pageGuard := strings.Index(out, `if (opts.pageSize !== undefined) {`)
	if filterGuard < 0 || pageGuard < 0 {
		t.Fatalf("missing query guards:\n%s", out)
	}
	if filterGuard > pageGuard {
		t.Fatalf("query guards not sorted: filter at %d, pageSize at %d", filterGuard, pageGuard)
	}
	if !strings.Contains(out, `url.searchParams.append("filter", String(opts.filter));`) {
		t.Fatalf("missing query append:\n%s", out)
	}
	if !strings.Contains(out, "export interface ThingsGetOptions {") {
		t.Fatalf("missing synthetic options interface:\n%s", out)
	}
}

func TestPlainAndPlusPathTokensMatch(t *testing.T) {
	build := func(path string) string {
		doc := minimalDoc()
		doc["resources"] = map[string]any{
			"things": map[string]any{
				"methods": map[string]any{
					"get": map[string]any{
						"httpMethod": "GET",
						"path":       path,
						"parameters": map[string]any{
							"thingId": map[string]any{"location": "path", "type": "string", "required": true},
						},
					},
				},
			},
		}
		return generate(t, doc)
	}
	if build("things/{thingId}") != build("things/{+thingId}") {
		t.Fatalf("{name} and {+name} produced different output")
	}
}

func TestRepeatedQueryParamIteration(t *testing.T) {
	doc := minimalDoc()
	doc["resources"] = map[string]any{
		"things": map[string]any{
			"methods": map[string]any{
				"list": map[string]any{
					"httpMethod": "GET",
					"path":       "things",
					"parameters": map[string]any{
						"ids":  map[string]any{"location": "query", "type": "string", "repeated": true},
						"name": map[string]any{"location": "query", "type": "string"},
					},
				},
			},
		},
	}
	out := generate(t, doc)

	if !strings.Contains(out, "for (const v of opts.ids) {") {
		t.Fatalf("repeated param should iterate:\n%s", out)
	}
	if !strings.Contains(out, `url.searchParams.append("ids", String(v));`) {
		t.Fatalf("repeated param append missing:\n%s", out)
	}
	if !strings.Contains(out, `url.searchParams.append("name", String(opts.name));`) {
		t.Fatalf("single param should append once:\n%s", out)
	}
	if !strings.Contains(out, "ids?: string[];") {
		t.Fatalf("repeated string param should be array typed:\n%s", out)
	}
}

func TestPrimaryNameCasing(t *testing.T) {
	doc := minimalDoc()
	doc["name"] = "bigquery"
	doc["title"] = "BigQuery API"
	out := generate(t, doc)
	if !strings.Contains(out, "export class BigQuery {") {
		t.Fatalf("expected class BigQuery:\n%s", out)
	}
}

func TestMethodOrdering(t *testing.T) {
	doc := minimalDoc()
	doc["resources"] = map[string]any{
		"zebras": map[string]any{
			"methods": map[string]any{
				"list": map[string]any{"httpMethod": "GET", "path": "zebras"},
			},
		},
		"apples": map[string]any{
			"methods": map[string]any{
				"list": map[string]any{"httpMethod": "GET", "path": "apples"},
			},
		},
	}
	out := generate(t, doc)
	apples := strings.Index(out, "async applesList(")
	zebras := strings.Index(out, "async zebrasList(")
	if apples < 0 || zebras < 0 {
		t.Fatalf("missing methods:\n%s", out)
	}
	if apples > zebras {
		t.Fatalf("methods not sorted by camelCase name")
	}
}

func TestNestedResourceNames(t *testing.T) {
	doc := minimalDoc()
	doc["resources"] = map[string]any{
		"projects": map[string]any{
			"resources": map[string]any{
				"datasets": map[string]any{
					"methods": map[string]any{
						"delete": map[string]any{"httpMethod": "DELETE", "path": "projects/datasets"},
					},
				},
			},
		},
	}
	out := generate(t, doc)
	if !strings.Contains(out, "async projectsDatasetsDelete(") {
		t.Fatalf("missing flattened method name:\n%s", out)
	}
}

func TestMissingIdentityFieldsFail(t *testing.T) {
	for _, field := range []string{"name", "title", "rootUrl"} {
		doc := minimalDoc()
		delete(doc, field)
		_, err := codegen.New(parseDoc(t, doc), "https://example.com/self.ts")
		if err == nil {
			t.Fatalf("expected error for missing %s", field)
		}
		var schemaErr *codegen.SchemaError
		if !errors.As(err, &schemaErr) {
			t.Fatalf("expected SchemaError for missing %s, got %v", field, err)
		}
	}
}

func TestNonRequiredPathParamFails(t *testing.T) {
	doc := minimalDoc()
	doc["resources"] = map[string]any{
		"things": map[string]any{
			"methods": map[string]any{
				"get": map[string]any{
					"httpMethod": "GET",
					"path":       "things/{thingId}",
					"parameters": map[string]any{
						"thingId": map[string]any{"location": "path", "type": "string"},
					},
				},
			},
		},
	}
	gen, err := codegen.New(parseDoc(t, doc), "https://example.com/self.ts")
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	if _, err := gen.Generate(); err == nil {
		t.Fatalf("expected error for non-required path parameter")
	}
}

func TestUnresolvedRefFails(t *testing.T) {
	doc := minimalDoc()
	doc["schemas"] = map[string]any{
		"Broken": map[string]any{
			"id":   "Broken",
			"type": "object",
			"properties": map[string]any{
				"x": map[string]any{"$ref": "Missing"},
			},
		},
	}
	gen, err := codegen.New(parseDoc(t, doc), "https://example.com/self.ts")
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	if _, err := gen.Generate(); err == nil {
		t.Fatalf("expected error for unresolved $ref")
	}
}

func TestInputSchemasNotMutated(t *testing.T) {
	doc := minimalDoc()
	doc["resources"] = map[string]any{
		"things": map[string]any{
			"methods": map[string]any{
				"list": map[string]any{
					"httpMethod": "GET",
					"path":       "things",
					"parameters": map[string]any{
						"filter": map[string]any{"location": "query", "type": "string"},
					},
				},
			},
		},
	}
	parsed := parseDoc(t, doc)
	gen, err := codegen.New(parsed, "https://example.com/self.ts")
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	out, err := gen.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "export interface ThingsListOptions {") {
		t.Fatalf("missing options interface:\n%s", out)
	}
	if _, ok := parsed.Schemas["ThingsListOptions"]; ok {
		t.Fatalf("input schema table was mutated")
	}
}

func TestDottedKeysBracketed(t *testing.T) {
	doc := minimalDoc()
	doc["schemas"] = map[string]any{
		"Weird": map[string]any{
			"id":   "Weird",
			"type": "object",
			"properties": map[string]any{
				"a.b": map[string]any{"type": "string", "format": "int64"},
			},
		},
	}
	out := generate(t, doc)
	if !strings.Contains(out, `"a.b"?: bigint;`) {
		t.Fatalf("dotted interface key should be quoted:\n%s", out)
	}
	if !strings.Contains(out, `data["a.b"]`) {
		t.Fatalf("dotted key reads should be bracketed:\n%s", out)
	}
	if strings.Contains(out, "data.a.b") {
		t.Fatalf("dotted key must never be emitted bare:\n%s", out)
	}
}

func TestDocCommentEscaping(t *testing.T) {
	doc := minimalDoc()
	doc["resources"] = map[string]any{
		"things": map[string]any{
			"methods": map[string]any{
				"list": map[string]any{
					"httpMethod":  "GET",
					"path":        "things",
					"description": "Lists things. Beware of */ inside comments.",
				},
			},
		},
	}
	out := generate(t, doc)
	if !strings.Contains(out, `*\/ inside comments.`) {
		t.Fatalf("comment terminator should be escaped:\n%s", out)
	}
}

func TestDocCommentWrapping(t *testing.T) {
	long := strings.Repeat("word ", 60)
	doc := minimalDoc()
	doc["resources"] = map[string]any{
		"things": map[string]any{
			"methods": map[string]any{
				"list": map[string]any{
					"httpMethod":  "GET",
					"path":        "things",
					"description": long,
				},
			},
		},
	}
	out := generate(t, doc)
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "word") && len(line) > 80 {
			t.Fatalf("doc comment line exceeds 80 columns: %q", line)
		}
	}
}
