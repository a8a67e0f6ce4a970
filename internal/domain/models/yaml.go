package models

import (
	"math"
	"math/big"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// plainInteger matches YAML integer literals, including the ones yaml.v3
// demotes to !!float because they overflow 64 bits
var plainInteger = regexp.MustCompile(`^[-+]?(0[xX][0-9a-fA-F_]+|0[oO][0-7_]+|0[bB][01_]+|[0-9][0-9_]*)$`)

// UnmarshalYAML keeps integer literals exact regardless of size
func (p *Params) UnmarshalYAML(node *yaml.Node) error {
	m, err := decodeMapping(node)
	if err != nil {
		return err
	}
	*p = m
	return nil
}

// UnmarshalYAML keeps integer literals exact regardless of size
func (c *Configuration) UnmarshalYAML(node *yaml.Node) error {
	m, err := decodeMapping(node)
	if err != nil {
		return err
	}
	*c = m
	return nil
}

func decodeMapping(node *yaml.Node) (map[string]any, error) {
	v, err := decodeNode(node)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &yaml.TypeError{Errors: []string{"expected a mapping"}}
	}
	return m, nil
}

func decodeNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return decodeNode(node.Content[0])
	case yaml.AliasNode:
		return decodeNode(node.Alias)
	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := decodeNode(child)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.MappingNode:
		m := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var key string
			if err := node.Content[i].Decode(&key); err != nil {
				return nil, err
			}
			v, err := decodeNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[key] = v
		}
		return m, nil
	default:
		return decodeScalar(node)
	}
}

func decodeScalar(node *yaml.Node) (any, error) {
	tag := node.ShortTag()
	if (tag == "!!int" || tag == "!!float") && plainInteger.MatchString(node.Value) {
		var v any
		if err := node.Decode(&v); err == nil {
			if _, isFloat := v.(float64); !isFloat {
				return v, nil
			}
		}
		if n, ok := new(big.Int).SetString(strings.ReplaceAll(node.Value, "_", ""), 0); ok {
			return n, nil
		}
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	// float64 cannot hold every integer past 2^53; hand the literal on as text
	if f, ok := v.(float64); ok && tag == "!!float" && math.Abs(f) >= 1<<53 {
		return node.Value, nil
	}
	return v, nil
}
