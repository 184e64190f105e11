// Package process defines the declarative process specification consumed by
// LaneFlow and resolves it into the graph model the layout engine works on.
//
// A spec is a flat list of nodes grouped into lanes. Each node names at most
// one successor, except gateway nodes ("flow" type) which carry an ordered
// branch map. The package decodes specs from JSON or YAML, preserving the
// document order of branch maps, and derives the transition list and
// incoming-transition index.
package process

import "strings"

// =============================================================================
// Node Kinds
// =============================================================================

// Kind classifies a process node. It determines the BPMN element the node
// maps to and how the layout engine sizes its shape.
type Kind string

// Known node kinds. Unrecognized type strings map to KindTask.
const (
	KindStart      Kind = "start"
	KindFinish     Kind = "finish"
	KindGateway    Kind = "flow"
	KindSystemTask Kind = "systemtask"
	KindUserTask   Kind = "usertask"
	KindScriptTask Kind = "scripttask"
	KindSubProcess Kind = "subprocess"
	KindTask       Kind = "task"
)

// ParseKind maps a spec type string to a Kind. Matching is case-insensitive;
// anything unrecognized becomes a generic task.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start":
		return KindStart
	case "finish":
		return KindFinish
	case "flow":
		return KindGateway
	case "systemtask":
		return KindSystemTask
	case "usertask":
		return KindUserTask
	case "scripttask":
		return KindScriptTask
	case "subprocess":
		return KindSubProcess
	default:
		return KindTask
	}
}

// IsEvent reports whether the kind renders as a circular event marker.
func (k Kind) IsEvent() bool { return k == KindStart || k == KindFinish }

// IsGateway reports whether the kind renders as a branching diamond.
func (k Kind) IsGateway() bool { return k == KindGateway }

// =============================================================================
// Spec - Wire Format
// =============================================================================

// Spec is the declarative process description.
//
// Both Nodes and Lanes must be present in the source document; a spec missing
// either fails validation before any layout work happens.
type Spec struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Lanes []Lane `json:"lanes" yaml:"lanes"`
}

// Node is a single process step.
type Node struct {
	ID     string `json:"id" yaml:"id"`
	Type   string `json:"type" yaml:"type"`
	Name   string `json:"name" yaml:"name"`
	LaneID string `json:"lane_id" yaml:"lane_id"`
	Next   *Next  `json:"next,omitempty" yaml:"next,omitempty"`
}

// Kind returns the parsed node kind.
func (n *Node) Kind() Kind { return ParseKind(n.Type) }

// Lane is a horizontal swimlane grouping nodes. Lanes stack vertically by
// ascending numeric ID.
type Lane struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Branch is one entry of a gateway's ordered branch map.
type Branch struct {
	Key    string
	Target string
}

// Next describes a node's outgoing connection. Exactly one of Target or
// Branches is set: linear nodes name a single successor, gateway nodes carry
// the ordered branch list in document order.
type Next struct {
	Target   string
	Branches []Branch
}

// IsBranch reports whether this is a gateway-style branch map.
func (n *Next) IsBranch() bool { return n != nil && len(n.Branches) > 0 }

// Targets returns the successor node IDs in document order, with duplicate
// targets removed (keeping the first occurrence).
func (n *Next) Targets() []string {
	if n == nil {
		return nil
	}
	if !n.IsBranch() {
		if n.Target == "" {
			return nil
		}
		return []string{n.Target}
	}
	seen := make(map[string]bool, len(n.Branches))
	targets := make([]string, 0, len(n.Branches))
	for _, b := range n.Branches {
		if seen[b.Target] {
			continue
		}
		seen[b.Target] = true
		targets = append(targets, b.Target)
	}
	return targets
}
