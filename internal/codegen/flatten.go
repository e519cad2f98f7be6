package codegen

import (
	"sort"

	"discogen/internal/discovery"
)

// param pairs a parameter name with its type node.
type param struct {
	name   string
	schema *discovery.Schema
}

// methodRecord is the flattened representation of one API method.
type methodRecord struct {
	httpMethod  string
	path        string
	description string
	camelName   string
	pascalName  string
	request     *discovery.Schema
	response    *discovery.Schema
	pathParams  []param
	queryParams []param
}

// flattenMethods walks the nested resource tree depth-first and returns
// method records sorted by camelCase name. Identifiers are unique by
// construction: every record's name carries its full resource prefix.
func flattenMethods(doc *discovery.Document) ([]methodRecord, error) {
	var records []methodRecord

	appendMethods := func(prefix []string, methods map[string]*discovery.Method) error {
		names := make([]string, 0, len(methods))
		for name := range methods {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rec, err := buildRecord(append(append([]string{}, prefix...), name), methods[name])
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	}

	var walk func(prefix []string, res *discovery.Resource) error
	walk = func(prefix []string, res *discovery.Resource) error {
		if res == nil {
			return nil
		}
		if err := appendMethods(prefix, res.Methods); err != nil {
			return err
		}
		names := make([]string, 0, len(res.Resources))
		for name := range res.Resources {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := walk(append(append([]string{}, prefix...), name), res.Resources[name]); err != nil {
				return err
			}
		}
		return nil
	}

	if err := appendMethods(nil, doc.Methods); err != nil {
		return nil, err
	}
	resourceNames := make([]string, 0, len(doc.Resources))
	for name := range doc.Resources {
		resourceNames = append(resourceNames, name)
	}
	sort.Strings(resourceNames)
	for _, name := range resourceNames {
		if err := walk([]string{name}, doc.Resources[name]); err != nil {
			return nil, err
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].camelName < records[j].camelName })
	return records, nil
}

func buildRecord(segments []string, m *discovery.Method) (methodRecord, error) {
	id := m.ID
	if id == "" {
		id = camelJoin(segments)
	}
	if m.HTTPMethod == "" {
		return methodRecord{}, schemaErrorf(id, "method has no httpMethod")
	}
	if m.Path == "" {
		return methodRecord{}, schemaErrorf(id, "method has no path")
	}

	rec := methodRecord{
		httpMethod:  m.HTTPMethod,
		path:        m.Path,
		description: m.Description,
		camelName:   camelJoin(segments),
		pascalName:  pascalJoin(segments),
		request:     m.Request,
		response:    m.Response,
	}

	names := make([]string, 0, len(m.Parameters))
	for name := range m.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := m.Parameters[name]
		if p == nil {
			continue
		}
		switch p.Location {
		case "path":
			if !p.Required {
				return methodRecord{}, schemaErrorf(id, "path parameter %q must be required", name)
			}
			rec.pathParams = append(rec.pathParams, param{name: name, schema: p})
		case "query":
			rec.queryParams = append(rec.queryParams, param{name: name, schema: p})
		}
	}
	return rec, nil
}
