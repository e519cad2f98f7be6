package discovery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Document represents a Google API Discovery document (partial).
type Document struct {
	Kind              string               `json:"kind,omitempty"`
	ID                string               `json:"id,omitempty"`
	Name              string               `json:"name,omitempty"`
	Version           string               `json:"version,omitempty"`
	Title             string               `json:"title,omitempty"`
	Description       string               `json:"description,omitempty"`
	DocumentationLink string               `json:"documentationLink,omitempty"`
	RootURL           string               `json:"rootUrl,omitempty"`
	ServicePath       string               `json:"servicePath,omitempty"`
	BaseURL           string               `json:"baseUrl,omitempty"`
	Resources         map[string]*Resource `json:"resources,omitempty"`
	Methods           map[string]*Method   `json:"methods,omitempty"`
	Schemas           map[string]*Schema   `json:"schemas,omitempty"`
}

type Resource struct {
	Resources map[string]*Resource `json:"resources,omitempty"`
	Methods   map[string]*Method   `json:"methods,omitempty"`
}

type Method struct {
	ID             string             `json:"id,omitempty"`
	Path           string             `json:"path,omitempty"`
	FlatPath       string             `json:"flatPath,omitempty"`
	HTTPMethod     string             `json:"httpMethod,omitempty"`
	Description    string             `json:"description,omitempty"`
	Parameters     map[string]*Schema `json:"parameters,omitempty"`
	ParameterOrder []string           `json:"parameterOrder,omitempty"`
	Request        *Schema            `json:"request,omitempty"`
	Response       *Schema            `json:"response,omitempty"`
}

// Schema is a Discovery type node: a primitive, array, object, enum,
// formatted string, or a $ref into the document's schema table.
type Schema struct {
	ID                   string             `json:"id,omitempty"`
	Ref                  string             `json:"$ref,omitempty"`
	Type                 string             `json:"type,omitempty"`
	Format               string             `json:"format,omitempty"`
	Description          string             `json:"description,omitempty"`
	Enum                 []string           `json:"enum,omitempty"`
	EnumDescriptions     []string           `json:"enumDescriptions,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Items                *Items             `json:"items,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty"`
	Required             bool               `json:"required,omitempty"`
	ReadOnly             bool               `json:"readOnly,omitempty"`
	Repeated             bool               `json:"repeated,omitempty"`
	Location             string             `json:"location,omitempty"`
}

// Items is the element type of an array node. Discovery normally holds a
// single schema here, but a JSON array of schemas (a tuple form) is
// syntactically possible and preserved for the caller to reject.
type Items struct {
	Schema *Schema
	Tuple  []*Schema
}

func (it *Items) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(data, &it.Tuple)
	}
	it.Schema = new(Schema)
	return json.Unmarshal(data, it.Schema)
}

func (it *Items) MarshalJSON() ([]byte, error) {
	if it.Tuple != nil {
		return json.Marshal(it.Tuple)
	}
	return json.Marshal(it.Schema)
}

// ParseDocument decodes a raw Discovery document.
func ParseDocument(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("discovery: parse failed: %w", err)
	}
	return &doc, nil
}

// LooksLikeDiscovery reports whether payload appears to be a Google API
// Discovery document.
func LooksLikeDiscovery(raw []byte) bool {
	var payload struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(payload.Kind), "discovery#")
}

// BaseAddress returns the client base URL for the document: baseUrl when
// present, otherwise rootUrl + servicePath.
func (d *Document) BaseAddress() string {
	if d.BaseURL != "" {
		return d.BaseURL
	}
	return d.RootURL + d.ServicePath
}
