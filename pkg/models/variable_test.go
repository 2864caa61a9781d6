package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

const variablesJSON = `[
	{"type":"LENGTH","name":"length","value":null,"description":"","expression":"10 mm","units":"mm"},
	{"type":"ANGLE","name":"angle","expression":"45 deg","extra":{"nested":[1,2]}}
]`

func TestVariablesRoundTrip(t *testing.T) {
	var variables Variables
	err := json.Unmarshal([]byte(variablesJSON), &variables)
	assert.NoError(t, err)

	assert.Equal(t, []string{"length", "angle"}, variables.Names())
	assert.Equal(t, "10 mm", variables[0].Expression)
	assert.Equal(t, "mm", variables[0].Units)
	assert.Equal(t, "", variables[1].Units)

	typ, ok := variables[1].Attribute("type")
	assert.True(t, ok)
	assert.JSONEq(t, `"ANGLE"`, string(typ))

	out, err := json.Marshal(variables)
	assert.NoError(t, err)
	assert.JSONEq(t, variablesJSON, string(out))
}

func TestVariableWithExpression(t *testing.T) {
	var variables Variables
	err := json.Unmarshal([]byte(variablesJSON), &variables)
	assert.NoError(t, err)

	v := variables[0].WithExpression("12.5 mm")
	assert.Equal(t, "10 mm", variables[0].Expression)
	assert.Equal(t, "12.5 mm", v.Expression)

	out, err := json.Marshal(v)
	assert.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"LENGTH","name":"length","value":null,"description":"","expression":"12.5 mm","units":"mm"}`,
		string(out),
	)
}

func TestVariableNullAttributes(t *testing.T) {
	const in = `{"type":"LENGTH","name":"width","expression":"5 mm","units":null}`
	var v Variable
	assert.NoError(t, json.Unmarshal([]byte(in), &v))
	assert.Equal(t, "", v.Units)

	out, err := json.Marshal(v)
	assert.NoError(t, err)
	assert.JSONEq(t, in, string(out))

	out, err = json.Marshal(v.WithExpression("6 mm"))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"type":"LENGTH","name":"width","expression":"6 mm","units":null}`, string(out))
}

func TestVariableWithoutUnits(t *testing.T) {
	out, err := json.Marshal(Variable{Name: "count", Expression: "3"})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"name":"count","expression":"3"}`, string(out))
}

func TestVariablesIndex(t *testing.T) {
	variables := Variables{
		{Name: "a", Expression: "1"},
		{Name: "b", Expression: "2"},
		{Name: "a", Expression: "3"},
	}
	assert.Equal(t, 0, variables.Index("a"))
	assert.Equal(t, 1, variables.Index("b"))
	assert.Equal(t, -1, variables.Index("A"))
}

func TestVariablesUnmarshalYAML(t *testing.T) {
	var o struct {
		Variables Variables `yaml:"variables"`
	}
	err := yaml.Unmarshal([]byte(`
variables:
  length: 10 mm
  angle:
    expression: 45 deg
    units: deg
    type: ANGLE
`), &o)
	assert.NoError(t, err)
	assert.Equal(t, []string{"length", "angle"}, o.Variables.Names())
	assert.Equal(t, "10 mm", o.Variables[0].Expression)
	assert.Equal(t, "45 deg", o.Variables[1].Expression)
	assert.Equal(t, "deg", o.Variables[1].Units)

	out, err := json.Marshal(o.Variables[1])
	assert.NoError(t, err)
	assert.JSONEq(t, `{"name":"angle","expression":"45 deg","units":"deg","type":"ANGLE"}`, string(out))
}

func TestSecretValue(t *testing.T) {
	cases := map[string]SecretValue{
		`"literal"`:               {Provider: "string", ID: "literal"},
		`{"env":"ACCESS_KEY"}`:    {Provider: "env", ID: "ACCESS_KEY"},
		`{"aws.ssm":"/cad/key"}`:  {Provider: "aws.ssm", ID: "/cad/key"},
		`{"file":"/run/key.txt"}`: {Provider: "file", ID: "/run/key.txt"},
	}
	for input, expected := range cases {
		var v SecretValue
		assert.NoError(t, json.Unmarshal([]byte(input), &v), input)
		assert.Equal(t, expected, v, input)

		var y SecretValue
		assert.NoError(t, yaml.Unmarshal([]byte(input), &y), input)
		assert.Equal(t, expected, y, input)
	}

	var v SecretValue
	assert.Error(t, json.Unmarshal([]byte(`{}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`12`), &v))
}

func TestSecretResolve(t *testing.T) {
	s := Secret{Name: "access_key", Value: SecretValue{Provider: "env", ID: "KEY"}}
	s2 := s.Resolve("value")

	assert.Equal(t, s.Name, s2.Name)
	assert.Equal(t, SecretValue{String: "value"}, s2.Value)
	assert.Equal(t, "env", s.Value.Provider)
}
