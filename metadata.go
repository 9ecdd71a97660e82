package toolrelay

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParamMetadata is the catalog entry for one parameter.
type ParamMetadata struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ToolMetadata is the catalog entry for one tool, as shown to the model.
type ToolMetadata struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Parameters  map[string]ParamMetadata `json:"parameters"`
	Returns     string                   `json:"returns"`
}

// Describe turns a tool's declared schema into its catalog entry. A parameter
// with a default gets "(default: X)" appended to its description.
func Describe(t Tool) ToolMetadata {
	md := ToolMetadata{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  map[string]ParamMetadata{},
		Returns:     t.Returns(),
	}
	props, _ := t.Parameters()["properties"].(map[string]any)
	for name, val := range props {
		prop, _ := val.(map[string]any)
		desc, _ := prop["description"].(string)
		if def, ok := prop["default"]; ok {
			desc = strings.TrimSpace(fmt.Sprintf("%s (default: %v)", desc, def))
		}
		md.Parameters[name] = ParamMetadata{Type: schemaTypeLabel(prop), Description: desc}
	}
	return md
}

// schemaTypeLabel renders a property's JSON Schema type; unions are joined with "|".
func schemaTypeLabel(prop map[string]any) string {
	switch v := prop["type"].(type) {
	case string:
		if v == "array" {
			if items, ok := prop["items"].(map[string]any); ok {
				if it := schemaTypeLabel(items); it != "any" {
					return "array[" + it + "]"
				}
			}
		}
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, "|")
	}
	return "any"
}

// Metadata returns the catalog entries of all registered tools, sorted by name.
func (r *Registry) Metadata() []ToolMetadata {
	tools := r.Tools()
	out := make([]ToolMetadata, 0, len(tools))
	for _, t := range tools {
		out = append(out, Describe(t))
	}
	return out
}

// Catalog serializes Metadata as indented JSON. It is rebuilt on every call so
// registrations take effect on the next prompt.
func (r *Registry) Catalog() (string, error) {
	data, err := json.MarshalIndent(r.Metadata(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tool catalog: %w", err)
	}
	return string(data), nil
}
