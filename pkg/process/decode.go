package process

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/laneflow/laneflow/pkg/errors"
)

// =============================================================================
// Spec Decoding API
// =============================================================================

// Format identifies a spec document encoding.
type Format string

// Supported spec encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat picks a format from a file path's extension.
// Unknown extensions default to JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ReadFile reads and validates a spec file, detecting the format from the
// file extension.
func ReadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read spec %s", path)
	}
	return DecodeBytes(data, DetectFormat(path))
}

// Decode reads a spec document from r and validates it.
func Decode(r io.Reader, format Format) (*Spec, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}
	return DecodeBytes(data, format)
}

// DecodeBytes parses and validates a spec document.
func DecodeBytes(data []byte, format Format) (*Spec, error) {
	var spec Spec

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSpec, err, "decode yaml spec")
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&spec); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSpec, err, "decode json spec")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown spec format %q", format)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks the structural preconditions the layout engine relies on.
// It fails before any layout work if nodes or lanes are missing, if IDs
// collide, or if a node references an unknown lane or successor.
func (s *Spec) Validate() error {
	if s.Nodes == nil {
		return errors.New(errors.ErrCodeInvalidSpec, "spec has no nodes")
	}
	if s.Lanes == nil {
		return errors.New(errors.ErrCodeInvalidSpec, "spec has no lanes")
	}

	lanes := make(map[string]bool, len(s.Lanes))
	for _, l := range s.Lanes {
		if l.ID == "" {
			return errors.New(errors.ErrCodeInvalidSpec, "lane with empty id")
		}
		if lanes[l.ID] {
			return errors.New(errors.ErrCodeInvalidSpec, "duplicate lane id %q", l.ID)
		}
		lanes[l.ID] = true
	}

	nodes := make(map[string]bool, len(s.Nodes))
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.ID == "" {
			return errors.New(errors.ErrCodeInvalidSpec, "node with empty id")
		}
		if nodes[n.ID] {
			return errors.New(errors.ErrCodeInvalidSpec, "duplicate node id %q", n.ID)
		}
		nodes[n.ID] = true
		if !lanes[n.LaneID] {
			return errors.New(errors.ErrCodeInvalidSpec, "node %q references unknown lane %q", n.ID, n.LaneID)
		}
	}

	for i := range s.Nodes {
		n := &s.Nodes[i]
		for _, target := range n.Next.Targets() {
			if !nodes[target] {
				return errors.New(errors.ErrCodeInvalidSpec, "node %q references unknown successor %q", n.ID, target)
			}
		}
	}

	return nil
}
