package schema

import "fmt"

// Visitor handles every node variant. A is a per-call argument threaded
// through the traversal and R is the result.
type Visitor[A, R any] interface {
	VisitObject(id ID, n *Object, arg A) R
	VisitArray(id ID, n *Array, arg A) R
	VisitString(id ID, n *String, arg A) R
	VisitInteger(id ID, n *Integer, arg A) R
	VisitNumber(id ID, n *Number, arg A) R
	VisitBoolean(id ID, n *Boolean, arg A) R
	VisitNull(id ID, n *Null, arg A) R
	VisitUnion(id ID, n *Union, arg A) R
	VisitReference(id ID, n *Reference, arg A) R
	VisitEnumerated(id ID, n *Enumerated, arg A) R
}

// Accept dispatches the node id to the matching Visitor method.
// It panics if id does not refer to a node of g.
func Accept[A, R any](g *Graph, id ID, v Visitor[A, R], arg A) R {
	switch n := g.Node(id).(type) {
	case *Object:
		return v.VisitObject(id, n, arg)
	case *Array:
		return v.VisitArray(id, n, arg)
	case *String:
		return v.VisitString(id, n, arg)
	case *Integer:
		return v.VisitInteger(id, n, arg)
	case *Number:
		return v.VisitNumber(id, n, arg)
	case *Boolean:
		return v.VisitBoolean(id, n, arg)
	case *Null:
		return v.VisitNull(id, n, arg)
	case *Union:
		return v.VisitUnion(id, n, arg)
	case *Reference:
		return v.VisitReference(id, n, arg)
	case *Enumerated:
		return v.VisitEnumerated(id, n, arg)
	}
	panic(fmt.Sprintf("schema: no node with id %d", id))
}

// Children returns pointers to every child slot of n, in resolution order:
// properties, definitions, items (single or tuple), allOf, anyOf, oneOf,
// union alternatives and additionalItems. Writing through a pointer
// rewrites the slot. Empty slots are skipped.
func Children(n Node) []*ID {
	var out []*ID
	add := func(p *ID) {
		if p.Valid() {
			out = append(out, p)
		}
	}
	b := n.Common()

	if o, ok := n.(*Object); ok {
		for i := range o.Properties {
			add(&o.Properties[i].Node)
		}
	}
	for i := range b.Definitions {
		add(&b.Definitions[i].Node)
	}
	if a, ok := n.(*Array); ok {
		add(&a.Items)
		for i := range a.Tuple {
			add(&a.Tuple[i])
		}
	}
	for i := range b.AllOf {
		add(&b.AllOf[i])
	}
	for i := range b.AnyOf {
		add(&b.AnyOf[i])
	}
	for i := range b.OneOf {
		add(&b.OneOf[i])
	}
	if u, ok := n.(*Union); ok {
		for i := range u.Alternatives {
			add(&u.Alternatives[i])
		}
	}
	if a, ok := n.(*Array); ok {
		add(&a.AdditionalItemsSchema)
	}
	return out
}

// Walk calls fn once for every node reachable from root, parents before
// children. Shared and cyclic nodes are visited once.
func (g *Graph) Walk(root ID, fn func(id ID, n Node)) {
	seen := make(map[ID]bool)
	var visit func(ID)
	visit = func(id ID) {
		if seen[id] {
			return
		}
		n := g.Node(id)
		if n == nil {
			return
		}
		seen[id] = true
		fn(id, n)
		for _, c := range Children(n) {
			visit(*c)
		}
	}
	visit(root)
}
