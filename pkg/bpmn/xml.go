package bpmn

import (
	"encoding/xml"

	"github.com/laneflow/laneflow/pkg/errors"
)

// Marshal serializes the document to XML with the standard header. When
// pretty is true the output is indented with two spaces.
//
// The document's references are validated first: a sequence flow pointing at
// a missing node, a lane listing an unknown flowNodeRef, or a diagram element
// referencing a model id that does not exist all reject the whole document.
func Marshal(defs *Definitions, pretty bool) ([]byte, error) {
	if err := validate(defs); err != nil {
		return nil, err
	}

	var (
		body []byte
		err  error
	)
	if pretty {
		body, err = xml.MarshalIndent(defs, "", "  ")
	} else {
		body, err = xml.Marshal(defs)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerialize, err, "encode document")
	}

	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}

// validate checks the internal reference integrity of a document.
func validate(defs *Definitions) error {
	if defs.Process == nil {
		return errors.New(errors.ErrCodeSerialize, "document has no process")
	}

	nodeIDs := defs.Process.FlowNodeIDs()

	// Model ids a diagram element may legally point at.
	modelIDs := make(map[string]bool, len(nodeIDs)+len(defs.Process.Flows)+4)
	for id := range nodeIDs {
		modelIDs[id] = true
	}
	if defs.Collaboration != nil {
		modelIDs[defs.Collaboration.ID] = true
		modelIDs[defs.Collaboration.Participant.ID] = true
	}

	for _, flow := range defs.Process.Flows {
		if !nodeIDs[flow.SourceRef] {
			return errors.New(errors.ErrCodeSerialize,
				"sequence flow %q references unknown source %q", flow.ID, flow.SourceRef)
		}
		if !nodeIDs[flow.TargetRef] {
			return errors.New(errors.ErrCodeSerialize,
				"sequence flow %q references unknown target %q", flow.ID, flow.TargetRef)
		}
		modelIDs[flow.ID] = true
	}

	if defs.Process.LaneSet != nil {
		for _, lane := range defs.Process.LaneSet.Lanes {
			for _, ref := range lane.FlowNodeRefs {
				if !nodeIDs[ref] {
					return errors.New(errors.ErrCodeSerialize,
						"lane %q references unknown flow node %q", lane.ID, ref)
				}
			}
			modelIDs[lane.ID] = true
		}
	}

	if defs.Diagram != nil {
		for _, shape := range defs.Diagram.Plane.Shapes {
			if !modelIDs[shape.BPMNElement] {
				return errors.New(errors.ErrCodeSerialize,
					"shape %q references unknown element %q", shape.ID, shape.BPMNElement)
			}
		}
		for _, edge := range defs.Diagram.Plane.Edges {
			if !modelIDs[edge.BPMNElement] {
				return errors.New(errors.ErrCodeSerialize,
					"edge %q references unknown element %q", edge.ID, edge.BPMNElement)
			}
		}
	}

	return nil
}
