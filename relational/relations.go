package relational

import "iter"

// Predicate reports whether a node is accepted.
type Predicate func(Node) bool

func pass(Node) bool { return true }

// every combines predicates with AND. No predicates accept everything.
func every(predicates []Predicate) Predicate {
	switch len(predicates) {
	case 0:
		return pass
	case 1:
		if predicates[0] == nil {
			return pass
		}
		return predicates[0]
	}
	return func(n Node) bool {
		for _, p := range predicates {
			if p != nil && !p(n) {
				return false
			}
		}
		return true
	}
}

// EachChild yields the children of n in key order.
//
// All Each iterators are lazy: children are resolved when the sequence is
// ranged over, and every range starts a fresh walk. They panic with the
// *StructureError if a ChildProvider returns invalid children.
func EachChild(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, child := range mustChildren(n) {
			if !yield(child.Node) {
				return
			}
		}
	}
}

// EachParent yields the parent chain of n, nearest first, ending at the root.
func EachParent(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		seen := map[*Relational]struct{}{n.Relations(): {}}
		for p := GetParent(n); p != nil; p = GetParent(p) {
			r := p.Relations()
			if _, ok := seen[r]; ok {
				return // parent chain rigged into a loop with SetParent
			}
			seen[r] = struct{}{}
			if !yield(p) {
				return
			}
		}
	}
}

// EachSibling yields the other children of n's parent. Roots have none.
func EachSibling(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		parent := GetParent(n)
		if parent == nil {
			return
		}
		self := n.Relations()
		for child := range EachChild(parent) {
			if child.Relations() == self {
				continue
			}
			if !yield(child) {
				return
			}
		}
	}
}

// EachAncestor yields, for every parent of n (nearest first), the parent
// followed by the parent's siblings.
func EachAncestor(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for parent := range EachParent(n) {
			if !yield(parent) {
				return
			}
			for sibling := range EachSibling(parent) {
				if !yield(sibling) {
					return
				}
			}
		}
	}
}

// EachDescendant walks the descendants of n breadth first. Every child of an
// expanded node is yielded, but only children accepted by filter are
// expanded in the next generation. Each node is yielded at most once and n
// itself is never yielded, so rigged cycles terminate.
func EachDescendant(n Node, filter ...Predicate) iter.Seq[Node] {
	expand := every(filter)
	return func(yield func(Node) bool) {
		seen := map[*Relational]struct{}{n.Relations(): {}}
		generation := []Node{n}
		for len(generation) > 0 {
			var next []Node
			for _, node := range generation {
				for _, child := range mustChildren(node) {
					r := child.Node.Relations()
					if _, ok := seen[r]; ok {
						continue
					}
					seen[r] = struct{}{}

					if !yield(child.Node) {
						return
					}
					if expand(child.Node) {
						next = append(next, child.Node)
					}
				}
			}
			generation = next
		}
	}
}

// EachInHierarchy yields the root of n's tree followed by every descendant
// of the root, i.e. every node of the tree containing n.
func EachInHierarchy(n Node, filter ...Predicate) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		root := GetRoot(n)
		if !yield(root) {
			return
		}
		for node := range EachDescendant(root, filter...) {
			if !yield(node) {
				return
			}
		}
	}
}

// Collect drains a sequence into a slice.
func Collect(seq iter.Seq[Node]) []Node {
	var nodes []Node
	for n := range seq {
		nodes = append(nodes, n)
	}
	return nodes
}
