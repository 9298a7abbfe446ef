package assets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestExactNumber(t *testing.T) {
	for literal, want := range map[string]bool{
		"0":                    true,
		"-42":                  true,
		"9007199254740992":     true,
		"9007199254740993":     false,
		"-9007199254740993":    false,
		"-9007199254740992":    true,
		"1152921504606846976":  false,
		"12345678901234567891": false,
		"0.1":                  true,
		"1e30":                 true,
	} {
		assert.Equal(t, want, ExactNumber(literal), literal)
	}
}

func TestCheckJSONNumbersReportsPath(t *testing.T) {
	err := CheckJSONNumbers("$", []byte(`{"a": 1, "b": [2, {"id": 9007199254740993}]}`))

	var inexact *InexactNumberError
	require.True(t, errors.As(err, &inexact))
	assert.Equal(t, "$.b[1].id", inexact.Path)
	assert.Equal(t, "9007199254740993", inexact.Literal)
}

func TestCheckJSONNumbersAcceptsExactDocument(t *testing.T) {
	assert.NoError(t, CheckJSONNumbers("$", []byte(`[1, 2.5, 9007199254740992, "12345678901234567891"]`)))
	assert.NoError(t, CheckJSONNumbers("$", []byte(`not json`)))
}

func TestCheckYAMLNumbers(t *testing.T) {
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("template:\n  edition: 9007199254740993\n  name: \"12345678901234567891\"\n"), &node))

	var inexact *InexactNumberError
	require.True(t, errors.As(CheckYAMLNumbers("$", &node), &inexact))
	assert.Equal(t, "$.template.edition", inexact.Path)

	require.NoError(t, yaml.Unmarshal([]byte("template:\n  edition: 42\n  name: \"12345678901234567891\"\n"), &node))
	assert.NoError(t, CheckYAMLNumbers("$", &node))
}
