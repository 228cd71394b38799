package schema

import "github.com/erraggy/aptos/document"

// Location is where a node was built: a document key and a JSON pointer
// into that document. The main document has the empty key.
type Location struct {
	Doc     string
	Pointer string
}

// String renders the location as a URI reference, e.g. "common.json#/definitions/Id".
func (l Location) String() string {
	return l.Doc + "#" + l.Pointer
}

// Child returns the location of a keyword (and optional name) below l.
func (l Location) Child(segs ...string) Location {
	return Location{Doc: l.Doc, Pointer: l.Pointer + document.JoinPointer(segs...)}
}

// Graph is the arena holding every node built for one schema document set.
// Nodes are appended once and never removed. A graph is mutated only while
// building and resolving; afterwards it is safe for concurrent reads.
type Graph struct {
	nodes []Node
	locs  []Location
	index map[Location]ID
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[Location]ID)}
}

// Add appends n, records its location and returns its ID. The first node
// added at a location owns it.
func (g *Graph) Add(n Node, loc Location) ID {
	id := ID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.locs = append(g.locs, loc)
	if _, ok := g.index[loc]; !ok {
		g.index[loc] = id
	}
	return id
}

// Alias makes loc resolve to id without changing id's own location.
func (g *Graph) Alias(loc Location, id ID) {
	g.index[loc] = id
}

// Lookup returns the node registered at loc.
func (g *Graph) Lookup(loc Location) (ID, bool) {
	id, ok := g.index[loc]
	return id, ok
}

// Node returns the node with the given ID, or nil when id is out of range.
func (g *Graph) Node(id ID) Node {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// Kind returns the variant of id, or -1 when id is out of range.
func (g *Graph) Kind(id ID) Kind {
	n := g.Node(id)
	if n == nil {
		return Kind(-1)
	}
	return n.Kind()
}

// Location returns where id was built.
func (g *Graph) Location(id ID) Location {
	if id < 0 || int(id) >= len(g.locs) {
		return Location{}
	}
	return g.locs[id]
}

// Len returns the number of nodes in the arena.
func (g *Graph) Len() int { return len(g.nodes) }

// Name returns the definition name of id, taken from its location when the
// node sits directly under "definitions", "$defs" or OpenAPI "schemas".
// It returns "" for any other node.
func (g *Graph) Name(id ID) string {
	segs, err := document.SplitPointer(g.Location(id).Pointer)
	if err != nil || len(segs) < 2 {
		return ""
	}
	switch segs[len(segs)-2] {
	case "definitions", "$defs", "schemas":
		return segs[len(segs)-1]
	}
	return ""
}

// reserve allocates an ID at loc before its node exists, so that the
// location is claimed while the node's children are built.
func (g *Graph) reserve(loc Location) ID {
	return g.Add(nil, loc)
}

// set fills a reserved slot.
func (g *Graph) set(id ID, n Node) {
	g.nodes[id] = n
}
