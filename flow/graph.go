package flow

// Graph is a snapshot of a flow's nodes and edges.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes" validate:"dive"`
	Edges []Edge `json:"edges" yaml:"edges" validate:"dive"`
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Incoming returns the edges whose target is nodeID, in graph order.
func Incoming(nodeID string, edges []Edge) []Edge {
	var out []Edge
	for _, e := range edges {
		if e.Target == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// Outgoing returns the edges whose source is nodeID, in graph order.
func Outgoing(nodeID string, edges []Edge) []Edge {
	var out []Edge
	for _, e := range edges {
		if e.Source == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// ResolveInputs derives a node's handle values from the outputs of its
// sources. A wired handle whose source has no output resolves to "".
// When several edges target the same handle the last one in graph order
// wins.
func ResolveInputs(nodeID string, edges []Edge, outputs map[string]string) map[string]string {
	inputs := make(map[string]string)
	for _, e := range edges {
		if e.Target != nodeID {
			continue
		}
		inputs[e.In()] = outputs[e.OutputKey()]
	}
	return inputs
}

// Index is a precomputed adjacency view of a graph.
type Index struct {
	Nodes    map[string]Node
	incoming map[string][]Edge
	outgoing map[string][]Edge
}

// NewIndex builds an Index over g. Edges referencing unknown nodes are kept
// in the adjacency lists but have no Node entry.
func NewIndex(g *Graph) *Index {
	idx := &Index{
		Nodes:    make(map[string]Node, len(g.Nodes)),
		incoming: make(map[string][]Edge),
		outgoing: make(map[string][]Edge),
	}
	for _, n := range g.Nodes {
		idx.Nodes[n.ID] = n
	}
	for _, e := range g.Edges {
		idx.incoming[e.Target] = append(idx.incoming[e.Target], e)
		idx.outgoing[e.Source] = append(idx.outgoing[e.Source], e)
	}
	return idx
}

// Incoming returns the edges targeting id.
func (idx *Index) Incoming(id string) []Edge { return idx.incoming[id] }

// Outgoing returns the edges leaving id.
func (idx *Index) Outgoing(id string) []Edge { return idx.outgoing[id] }

// EntryNodes returns, in graph order, the nodes a run starts from: nodes
// without incoming edges that feed at least one other node, plus output
// nodes without incoming edges.
func (idx *Index) EntryNodes(g *Graph) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if len(idx.incoming[n.ID]) > 0 {
			continue
		}
		if len(idx.outgoing[n.ID]) > 0 || n.Type.IsOutput() {
			out = append(out, n)
		}
	}
	return out
}

// Downstream returns nodeID and every node reachable from it along
// outgoing edges, in breadth-first order. Cycles are tolerated.
func Downstream(nodeID string, edges []Edge) []string {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	visited := map[string]bool{nodeID: true}
	order := []string{nodeID}
	queue := []string{nodeID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if visited[next] {
				continue
			}
			visited[next] = true
			order = append(order, next)
			queue = append(queue, next)
		}
	}
	return order
}

// Incoming returns the edges targeting id.
func (g *Graph) Incoming(id string) []Edge { return Incoming(id, g.Edges) }

// Outgoing returns the edges leaving id.
func (g *Graph) Outgoing(id string) []Edge { return Outgoing(id, g.Edges) }

// ResolveInputs resolves id's handle values against outputs.
func (g *Graph) ResolveInputs(id string, outputs map[string]string) map[string]string {
	return ResolveInputs(id, g.Edges, outputs)
}

// WiredHandles returns the set of target handles with at least one
// incoming edge.
func (g *Graph) WiredHandles(id string) map[string]bool {
	wired := make(map[string]bool)
	for _, e := range g.Edges {
		if e.Target == id {
			wired[e.In()] = true
		}
	}
	return wired
}
