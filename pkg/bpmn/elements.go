// Package bpmn defines the BPMN 2.0 output document model and serializes it
// to XML.
//
// The model is a closed set of element structs, one per BPMN element kind.
// There is no generic "element" with a kind string: a start event is a
// [StartEvent], a gateway is an [ExclusiveGateway], and adding a new kind
// means adding a new struct and wiring it through [Process] and the
// serializer's reference check. This keeps dispatch at the type level and
// makes an unsupported element a compile error instead of a runtime branch.
package bpmn

import "encoding/xml"

// BPMN 2.0 namespace URIs.
const (
	NamespaceModel = "http://www.omg.org/spec/BPMN/20100524/MODEL"
	NamespaceDI    = "http://www.omg.org/spec/BPMN/20100524/DI"
	NamespaceDC    = "http://www.omg.org/spec/DD/20100524/DC"
	NamespaceDD    = "http://www.omg.org/spec/DD/20100524/DI"

	// TargetNamespace marks documents produced by this package.
	TargetNamespace = "http://laneflow.dev/schema/bpmn"
)

// =============================================================================
// Definitions - Document Root
// =============================================================================

// Definitions is the root of a BPMN document.
type Definitions struct {
	XMLName xml.Name `xml:"bpmn:definitions"`

	ID              string `xml:"id,attr"`
	TargetNamespace string `xml:"targetNamespace,attr"`

	XMLNSModel string `xml:"xmlns:bpmn,attr"`
	XMLNSDI    string `xml:"xmlns:bpmndi,attr"`
	XMLNSDC    string `xml:"xmlns:dc,attr"`
	XMLNSDD    string `xml:"xmlns:di,attr"`

	Collaboration *Collaboration `xml:"bpmn:collaboration"`
	Process       *Process       `xml:"bpmn:process"`
	Diagram       *BPMNDiagram   `xml:"bpmndi:BPMNDiagram"`
}

// Collaboration wraps the single participant pool.
type Collaboration struct {
	ID          string      `xml:"id,attr"`
	Participant Participant `xml:"bpmn:participant"`
}

// Participant is the pool referencing the process.
type Participant struct {
	ID         string `xml:"id,attr"`
	Name       string `xml:"name,attr,omitempty"`
	ProcessRef string `xml:"processRef,attr"`
}

// =============================================================================
// Process - Flow Elements
// =============================================================================

// Process holds the flow elements, grouped by element kind.
type Process struct {
	ID           string `xml:"id,attr"`
	IsExecutable bool   `xml:"isExecutable,attr"`

	LaneSet *LaneSet `xml:"bpmn:laneSet"`

	StartEvents  []StartEvent       `xml:"bpmn:startEvent"`
	EndEvents    []EndEvent         `xml:"bpmn:endEvent"`
	Tasks        []Task             `xml:"bpmn:task"`
	UserTasks    []UserTask         `xml:"bpmn:userTask"`
	ServiceTasks []ServiceTask      `xml:"bpmn:serviceTask"`
	ScriptTasks  []ScriptTask       `xml:"bpmn:scriptTask"`
	SubProcesses []SubProcess       `xml:"bpmn:subProcess"`
	Gateways     []ExclusiveGateway `xml:"bpmn:exclusiveGateway"`

	Flows []SequenceFlow `xml:"bpmn:sequenceFlow"`
}

// FlowNodeIDs returns the identifiers of every flow node in the process.
// The serializer uses this as the reference target set.
func (p *Process) FlowNodeIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, e := range p.StartEvents {
		ids[e.ID] = true
	}
	for _, e := range p.EndEvents {
		ids[e.ID] = true
	}
	for _, e := range p.Tasks {
		ids[e.ID] = true
	}
	for _, e := range p.UserTasks {
		ids[e.ID] = true
	}
	for _, e := range p.ServiceTasks {
		ids[e.ID] = true
	}
	for _, e := range p.ScriptTasks {
		ids[e.ID] = true
	}
	for _, e := range p.SubProcesses {
		ids[e.ID] = true
	}
	for _, e := range p.Gateways {
		ids[e.ID] = true
	}
	return ids
}

// LaneSet groups the process lanes.
type LaneSet struct {
	ID    string `xml:"id,attr"`
	Lanes []Lane `xml:"bpmn:lane"`
}

// Lane is one swimlane with references to the flow nodes it contains.
type Lane struct {
	ID           string   `xml:"id,attr"`
	Name         string   `xml:"name,attr,omitempty"`
	FlowNodeRefs []string `xml:"bpmn:flowNodeRef"`
}

// flowNode carries the fields shared by every flow element.
type flowNode struct {
	ID       string   `xml:"id,attr"`
	Name     string   `xml:"name,attr,omitempty"`
	Incoming []string `xml:"bpmn:incoming"`
	Outgoing []string `xml:"bpmn:outgoing"`
}

// StartEvent begins a process instance.
type StartEvent struct{ flowNode }

// EndEvent terminates a path through the process.
type EndEvent struct{ flowNode }

// Task is the generic activity, used for unrecognized node types.
type Task struct{ flowNode }

// UserTask is an activity performed by a person.
type UserTask struct{ flowNode }

// ServiceTask is an automated activity.
type ServiceTask struct{ flowNode }

// ScriptTask runs an embedded script.
type ScriptTask struct{ flowNode }

// SubProcess is a collapsed compound activity.
type SubProcess struct{ flowNode }

// ExclusiveGateway branches the flow along exactly one outgoing path.
type ExclusiveGateway struct{ flowNode }

// SequenceFlow is a directed connection between two flow nodes.
type SequenceFlow struct {
	ID        string `xml:"id,attr"`
	Name      string `xml:"name,attr,omitempty"`
	SourceRef string `xml:"sourceRef,attr"`
	TargetRef string `xml:"targetRef,attr"`
}

// =============================================================================
// Diagram Interchange
// =============================================================================

// BPMNDiagram is the diagram interchange section of the document.
type BPMNDiagram struct {
	ID    string    `xml:"id,attr"`
	Plane BPMNPlane `xml:"bpmndi:BPMNPlane"`
}

// BPMNPlane holds the shapes and edges of the diagram.
type BPMNPlane struct {
	ID          string `xml:"id,attr"`
	BPMNElement string `xml:"bpmnElement,attr"`

	Shapes []BPMNShape `xml:"bpmndi:BPMNShape"`
	Edges  []BPMNEdge  `xml:"bpmndi:BPMNEdge"`
}

// BPMNShape is the visual for one model element.
type BPMNShape struct {
	ID           string   `xml:"id,attr"`
	BPMNElement  string   `xml:"bpmnElement,attr"`
	IsHorizontal bool     `xml:"isHorizontal,attr,omitempty"`
	Bounds       DCBounds `xml:"dc:Bounds"`
}

// BPMNEdge is the routed polyline for one sequence flow.
type BPMNEdge struct {
	ID          string       `xml:"id,attr"`
	BPMNElement string       `xml:"bpmnElement,attr"`
	Waypoints   []DIWaypoint `xml:"di:waypoint"`
}

// DCBounds is a diagram rectangle.
type DCBounds struct {
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Width  float64 `xml:"width,attr"`
	Height float64 `xml:"height,attr"`
}

// DIWaypoint is one point of an edge polyline.
type DIWaypoint struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
}
