package assets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Documents are held as structpb values, whose numbers are float64, and are
// written back with the shortest decimal form of that float64. Integers up
// to 2^53 in magnitude come out digit for digit; larger ones would be
// rewritten in every copy, so such documents are refused instead.
var maxExactInteger = new(big.Int).Lsh(big.NewInt(1), 53)

// ExactNumber reports whether the number literal is written back unchanged.
// Literals with a fraction or an exponent already have float semantics and
// are accepted.
func ExactNumber(literal string) bool {
	if strings.ContainsAny(literal, ".eE") {
		return true
	}
	n, ok := new(big.Int).SetString(literal, 0)
	if !ok {
		return true
	}
	return n.CmpAbs(maxExactInteger) <= 0
}

// InexactNumberError describes the first number of a document that cannot
// be held exactly. Path is a dotted path from the document root.
type InexactNumberError struct {
	Path    string
	Literal string
}

func (e *InexactNumberError) Error() string {
	return fmt.Sprintf("number %s at %s cannot be represented exactly", e.Literal, e.Path)
}

// InexactNumberHint is shown next to an InexactNumberError.
const InexactNumberHint = `Quote large integers as strings, e.g. "token_id": "12345678901234567891".`

// CheckJSONNumbers returns an *InexactNumberError for the first number in
// data that cannot be written back unchanged. Paths in the error start at
// root. Malformed JSON is left to the caller's parser and yields nil.
func CheckJSONNumbers(root string, data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var doc interface{}
	if err := decoder.Decode(&doc); err != nil {
		return nil
	}
	return checkJSONValue(root, doc)
}

func checkJSONValue(path string, v interface{}) error {
	switch x := v.(type) {
	case json.Number:
		if !ExactNumber(x.String()) {
			return &InexactNumberError{Path: path, Literal: x.String()}
		}
	case []interface{}:
		for i, item := range x {
			if err := checkJSONValue(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
				return err
			}
		}
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := checkJSONValue(path+"."+k, x[k]); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckYAMLNumbers is CheckJSONNumbers for a decoded YAML node.
func CheckYAMLNumbers(root string, node *yaml.Node) error {
	return checkYAMLNode(root, node)
}

func checkYAMLNode(path string, node *yaml.Node) error {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := checkYAMLNode(path, child); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for i, child := range node.Content {
			if err := checkYAMLNode(fmt.Sprintf("%s[%d]", path, i), child); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if err := checkYAMLNode(path+"."+node.Content[i].Value, node.Content[i+1]); err != nil {
				return err
			}
		}
	case yaml.ScalarNode:
		tag := node.ShortTag()
		if (tag == "!!int" || tag == "!!float") && !ExactNumber(node.Value) {
			return &InexactNumberError{Path: path, Literal: node.Value}
		}
	}
	return nil
}
