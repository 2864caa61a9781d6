package models

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// A named parameter of a part studio.
//
// Attributes other than name, expression and units are kept as received so
// that resubmitting the variable list leaves them untouched.
type Variable struct {
	Name       string
	Expression string
	Units      string

	attributes map[string]json.RawMessage
}

type Variables []Variable

func (v *Variable) UnmarshalJSON(data []byte) error {
	var attributes map[string]json.RawMessage
	if err := json.Unmarshal(data, &attributes); err != nil {
		return err
	}

	*v = Variable{attributes: attributes}
	fields := map[string]*string{
		"name":       &v.Name,
		"expression": &v.Expression,
		"units":      &v.Units,
	}
	for key, field := range fields {
		raw, ok := attributes[key]
		if !ok || string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, field); err != nil {
			return fmt.Errorf("invalid variable %s: %w", key, err)
		}
	}
	return nil
}

// Attributes are written back as received, including nulls. Name, expression
// and units are only re-encoded when they no longer match what was received.
func (v Variable) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(v.attributes)+3)
	for key, raw := range v.attributes {
		out[key] = raw
	}
	fields := []struct {
		key      string
		value    string
		optional bool
	}{
		{"name", v.Name, false},
		{"expression", v.Expression, false},
		{"units", v.Units, true},
	}
	for _, f := range fields {
		raw, ok := v.attributes[f.key]
		if ok && decodesTo(raw, f.value) {
			continue
		}
		if !ok && f.optional && f.value == "" {
			continue
		}
		out[f.key] = f.value
	}
	return json.Marshal(out)
}

func decodesTo(raw json.RawMessage, value string) bool {
	if string(raw) == "null" {
		return value == ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	return s == value
}

// Returns a copy of the variable bound to a new expression
func (v Variable) WithExpression(expression string) Variable {
	v.Expression = expression
	return v
}

// Raw value of an attribute this package does not interpret
func (v Variable) Attribute(key string) (json.RawMessage, bool) {
	raw, ok := v.attributes[key]
	return raw, ok
}

// Index of the first variable with the given name, or -1
func (vs Variables) Index(name string) int {
	for i, v := range vs {
		if v.Name == name {
			return i
		}
	}
	return -1
}

func (vs Variables) Names() []string {
	names := make([]string, 0, len(vs))
	for _, v := range vs {
		names = append(names, v.Name)
	}
	return names
}

// Decodes a mapping of variable names to either an expression or an object
// with expression, units and any other attributes.
func (vs *Variables) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("invalid node kind: %v", node.Kind)
	}
	for i := 0; i < len(node.Content); i += 2 {
		variable := Variable{Name: node.Content[i].Value}
		value := node.Content[i+1]
		switch value.Kind {
		case yaml.ScalarNode:
			variable.Expression = value.Value
		case yaml.MappingNode:
			var o map[string]string
			if err := value.Decode(&o); err != nil {
				return err
			}
			variable.attributes = map[string]json.RawMessage{}
			for key, attr := range o {
				switch key {
				case "expression":
					variable.Expression = attr
				case "units":
					variable.Units = attr
				default:
					raw, err := json.Marshal(attr)
					if err != nil {
						return err
					}
					variable.attributes[key] = raw
				}
			}
		default:
			return fmt.Errorf("invalid node kind for variable %s: %v", variable.Name, value.Kind)
		}
		*vs = append(*vs, variable)
	}
	return nil
}
