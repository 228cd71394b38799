package schema

// Stats summarizes the nodes reachable from a root.
type Stats struct {
	Nodes       int            `json:"nodes" yaml:"nodes"`
	ByKind      map[string]int `json:"by_kind,omitempty" yaml:"by_kind,omitempty"`
	Definitions []string       `json:"definitions,omitempty" yaml:"definitions,omitempty"`
	Properties  int            `json:"properties" yaml:"properties"`
	References  int            `json:"references" yaml:"references"`
	MaxDepth    int            `json:"max_depth" yaml:"max_depth"`
	Cyclic      bool           `json:"cyclic" yaml:"cyclic"`
}

// GetStats returns statistics for the subgraph reachable from root.
// Definitions lists the names of reachable nodes built under a
// definitions block, in visit order.
func GetStats(g *Graph, root ID) Stats {
	st := Stats{ByKind: make(map[string]int)}
	g.Walk(root, func(id ID, n Node) {
		st.Nodes++
		st.ByKind[n.Kind().String()]++
		if name := g.Name(id); name != "" {
			st.Definitions = append(st.Definitions, name)
		}
		switch t := n.(type) {
		case *Object:
			st.Properties += len(t.Properties)
		case *Reference:
			st.References++
		}
	})

	// depth along acyclic paths; an edge back onto the current path marks a cycle
	onPath := make(map[ID]bool)
	memo := make(map[ID]int)
	var depth func(ID) int
	depth = func(id ID) int {
		if onPath[id] {
			st.Cyclic = true
			return 0
		}
		if d, ok := memo[id]; ok {
			return d
		}
		n := g.Node(id)
		if n == nil {
			return 0
		}
		onPath[id] = true
		best := 0
		for _, c := range Children(n) {
			if d := depth(*c); d > best {
				best = d
			}
		}
		onPath[id] = false
		memo[id] = best + 1
		return best + 1
	}
	st.MaxDepth = depth(root)
	return st
}
