package models

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// A credential that still has to be read from its provider
type Secret struct {
	Name  string
	Value SecretValue
}

// Reference to a secret: a literal string or {"<provider>": "<id>"}
type SecretValue struct {
	String   string `json:"string,omitempty"`
	Provider string `json:"-"`
	ID       string `json:"-"`
}

func (v *SecretValue) UnmarshalJSON(data []byte) error {
	var literal string
	if err := json.Unmarshal(data, &literal); err == nil {
		*v = SecretValue{Provider: "string", ID: literal}
		return nil
	}

	var o map[string]string
	if err := json.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("secret must be a string or a single provider object: %w", err)
	}
	return v.fromProvider(o)
}

func (v *SecretValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*v = SecretValue{Provider: "string", ID: node.Value}
		return nil
	case yaml.MappingNode:
		var o map[string]string
		if err := node.Decode(&o); err != nil {
			return err
		}
		return v.fromProvider(o)
	}
	return fmt.Errorf("invalid node kind: %v", node.Kind)
}

func (v *SecretValue) fromProvider(o map[string]string) error {
	if len(o) != 1 {
		return fmt.Errorf("exactly one secret provider must be specified, got %d", len(o))
	}
	for provider, id := range o {
		*v = SecretValue{Provider: provider, ID: id}
	}
	return nil
}

func (s Secret) Resolve(value string) Secret {
	s.Value.String = value
	s.Value.Provider = ""
	s.Value.ID = ""
	return s
}
