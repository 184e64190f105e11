package process

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Next decoding preserves the document order of branch maps. Standard
// map-based decoding would lose it, and branch order decides row assignment
// during rank discovery, so both decoders walk the raw document instead.

// UnmarshalJSON decodes either a scalar successor ID or an ordered branch
// object. Key order is taken from the JSON token stream.
func (n *Next) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '"':
		return json.Unmarshal(trimmed, &n.Target)
	case '{':
		return n.unmarshalBranches(trimmed)
	default:
		return fmt.Errorf("next must be a string or an object, got %s", preview(trimmed))
	}
}

func (n *Next) unmarshalBranches(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	if _, err := dec.Token(); err != nil { // opening brace
		return err
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("branch key must be a string, got %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		target, ok := valTok.(string)
		if !ok {
			return fmt.Errorf("branch %q target must be a string, got %v", key, valTok)
		}

		n.Branches = append(n.Branches, Branch{Key: key, Target: target})
	}
	return nil
}

// UnmarshalYAML decodes either a scalar successor ID or an ordered branch
// mapping. yaml.Node preserves mapping order in its Content slice.
func (n *Next) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		return value.Decode(&n.Target)
	case yaml.MappingNode:
		// Content holds alternating key/value nodes.
		for i := 0; i+1 < len(value.Content); i += 2 {
			key := value.Content[i]
			val := value.Content[i+1]
			if val.Kind != yaml.ScalarNode {
				return fmt.Errorf("branch %q target must be a scalar", key.Value)
			}
			n.Branches = append(n.Branches, Branch{Key: key.Value, Target: val.Value})
		}
		return nil
	default:
		return fmt.Errorf("next must be a scalar or a mapping")
	}
}

// MarshalJSON emits the same shape the decoder accepts: a scalar for linear
// nodes, an object in branch order for gateways.
func (n *Next) MarshalJSON() ([]byte, error) {
	if !n.IsBranch() {
		return json.Marshal(n.Target)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range n.Branches {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(b.Key)
		if err != nil {
			return nil, err
		}
		target, err := json.Marshal(b.Target)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(target)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func preview(data []byte) string {
	const max = 20
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}
