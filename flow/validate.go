package flow

import (
	"fmt"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/validation"
)

// Validate checks that node and edge ids are present and unique and that
// every edge references known nodes. It does not check for cycles.
func (g *Graph) Validate() error {
	if err := validation.Validate(g); err != nil {
		return err
	}

	v := validation.New()
	nodes := make(map[string]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		if nodes[n.ID] {
			v.AddError(fmt.Sprintf("nodes[%d].id", i), fmt.Sprintf("duplicate node id %q", n.ID))
		}
		nodes[n.ID] = true
	}

	edges := make(map[string]bool, len(g.Edges))
	for i, e := range g.Edges {
		if e.ID != "" {
			if edges[e.ID] {
				v.AddError(fmt.Sprintf("edges[%d].id", i), fmt.Sprintf("duplicate edge id %q", e.ID))
			}
			edges[e.ID] = true
		}
		if !nodes[e.Source] {
			v.AddError(fmt.Sprintf("edges[%d].source", i), fmt.Sprintf("unknown node %q", e.Source))
		}
		if !nodes[e.Target] {
			v.AddError(fmt.Sprintf("edges[%d].target", i), fmt.Sprintf("unknown node %q", e.Target))
		}
	}

	if appErr := v.Validate(); appErr != nil {
		return errors.InvalidGraph(appErr.Message).WithDetail("fields", v.Errors())
	}
	return nil
}
