package bpmn

import (
	"github.com/laneflow/laneflow/pkg/layout"
	"github.com/laneflow/laneflow/pkg/process"
)

// Fixed identifiers for the singleton document elements.
const (
	definitionsID   = "Definitions_1"
	collaborationID = "Collaboration_1"
	participantID   = "Participant_1"
	processID       = "Process_1"
	laneSetID       = "LaneSet_1"
	diagramID       = "BPMNDiagram_1"
	planeID         = "BPMNPlane_1"
)

// NodeID returns the document identifier for a process node.
func NodeID(nodeID string) string { return "Node_" + nodeID }

// LaneID returns the document identifier for a lane.
func LaneID(laneID string) string { return "Lane_" + laneID }

// shapeID derives a diagram interchange identifier from a model identifier.
func shapeID(modelID string) string { return modelID + "_di" }

// Label renders a node's display text: the raw node id on the first line,
// its human name on the second.
func Label(n *process.Node) string { return n.ID + "\n" + n.Name }

// Build assembles the complete BPMN document from the resolved graph and its
// computed geometry. Nodes without bounds and transitions without waypoints
// keep their model elements but get no diagram interchange, so a partially
// failed layout still produces a structurally valid document.
func Build(g *process.Graph, d *layout.Diagram) *Definitions {
	b := &docBuilder{graph: g, diagram: d}
	return &Definitions{
		ID:              definitionsID,
		TargetNamespace: TargetNamespace,
		XMLNSModel:      NamespaceModel,
		XMLNSDI:         NamespaceDI,
		XMLNSDC:         NamespaceDC,
		XMLNSDD:         NamespaceDD,
		Collaboration: &Collaboration{
			ID: collaborationID,
			Participant: Participant{
				ID:         participantID,
				Name:       g.Spec.Name,
				ProcessRef: processID,
			},
		},
		Process: b.process(),
		Diagram: b.di(),
	}
}

type docBuilder struct {
	graph   *process.Graph
	diagram *layout.Diagram
}

func (b *docBuilder) process() *Process {
	p := &Process{
		ID:      processID,
		LaneSet: &LaneSet{ID: laneSetID, Lanes: b.lanes()},
	}

	for i := range b.graph.Spec.Nodes {
		n := &b.graph.Spec.Nodes[i]
		fn := flowNode{
			ID:   NodeID(n.ID),
			Name: Label(n),
		}
		for _, tr := range b.graph.Incoming[n.ID] {
			fn.Incoming = append(fn.Incoming, tr.ID())
		}
		for _, target := range n.Next.Targets() {
			fn.Outgoing = append(fn.Outgoing, process.Transition{Source: n.ID, Target: target}.ID())
		}

		switch n.Kind() {
		case process.KindStart:
			p.StartEvents = append(p.StartEvents, StartEvent{fn})
		case process.KindFinish:
			p.EndEvents = append(p.EndEvents, EndEvent{fn})
		case process.KindGateway:
			p.Gateways = append(p.Gateways, ExclusiveGateway{fn})
		case process.KindUserTask:
			p.UserTasks = append(p.UserTasks, UserTask{fn})
		case process.KindSystemTask:
			p.ServiceTasks = append(p.ServiceTasks, ServiceTask{fn})
		case process.KindScriptTask:
			p.ScriptTasks = append(p.ScriptTasks, ScriptTask{fn})
		case process.KindSubProcess:
			p.SubProcesses = append(p.SubProcesses, SubProcess{fn})
		default:
			p.Tasks = append(p.Tasks, Task{fn})
		}
	}

	for _, tr := range b.graph.Transitions {
		p.Flows = append(p.Flows, SequenceFlow{
			ID:        tr.ID(),
			SourceRef: NodeID(tr.Source),
			TargetRef: NodeID(tr.Target),
		})
	}

	return p
}

// lanes builds the lane set in stacking order, each lane referencing its
// nodes in declaration order.
func (b *docBuilder) lanes() []Lane {
	lanes := make([]Lane, 0, len(b.graph.Lanes))
	for _, lane := range b.graph.Lanes {
		l := Lane{ID: LaneID(lane.ID), Name: lane.Name}
		for i := range b.graph.Spec.Nodes {
			n := &b.graph.Spec.Nodes[i]
			if n.LaneID == lane.ID {
				l.FlowNodeRefs = append(l.FlowNodeRefs, NodeID(n.ID))
			}
		}
		lanes = append(lanes, l)
	}
	return lanes
}

func (b *docBuilder) di() *BPMNDiagram {
	plane := BPMNPlane{
		ID:          planeID,
		BPMNElement: collaborationID,
	}

	plane.Shapes = append(plane.Shapes, BPMNShape{
		ID:           shapeID(participantID),
		BPMNElement:  participantID,
		IsHorizontal: true,
		Bounds:       dcBounds(b.diagram.Plane),
	})
	for _, laneBox := range b.diagram.Lanes {
		plane.Shapes = append(plane.Shapes, BPMNShape{
			ID:           shapeID(LaneID(laneBox.LaneID)),
			BPMNElement:  LaneID(laneBox.LaneID),
			IsHorizontal: true,
			Bounds:       dcBounds(laneBox.Bounds),
		})
	}
	for i := range b.graph.Spec.Nodes {
		n := &b.graph.Spec.Nodes[i]
		bounds, ok := b.diagram.NodeBounds[n.ID]
		if !ok {
			continue
		}
		plane.Shapes = append(plane.Shapes, BPMNShape{
			ID:          shapeID(NodeID(n.ID)),
			BPMNElement: NodeID(n.ID),
			Bounds:      dcBounds(bounds),
		})
	}

	for _, tr := range b.graph.Transitions {
		points := b.diagram.Waypoints[tr.ID()]
		if len(points) == 0 {
			continue
		}
		edge := BPMNEdge{
			ID:          shapeID(tr.ID()),
			BPMNElement: tr.ID(),
		}
		for _, pt := range points {
			edge.Waypoints = append(edge.Waypoints, DIWaypoint{X: pt.X, Y: pt.Y})
		}
		plane.Edges = append(plane.Edges, edge)
	}

	return &BPMNDiagram{ID: diagramID, Plane: plane}
}

func dcBounds(b layout.Bounds) DCBounds {
	return DCBounds{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}
