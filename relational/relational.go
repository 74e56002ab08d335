// Package relational maintains an implicit tree of host objects and answers
// queries over it.
//
// A host type becomes a tree node by embedding Relational (by value) and being
// passed through Apply once its fields are initialised:
//
//	type Person struct {
//		relational.Searchable
//		Son *Person
//	}
//
//	func NewPerson(son *Person) *Person {
//		return relational.MustApply(&Person{Son: son})
//	}
//
// Apply registers every exported field holding another node as a child and
// sets that child's parent. After construction, edges only change through
// SetChild and RemoveChild, which enforce that a node has at most one parent.
//
// Trees are single threaded. Mutating a tree while one of the Each iterators
// or a query is walking it has unspecified ordering effects.
package relational

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/zjrosen/kinship/internal/log"
)

// Node is implemented by every participant in a tree. Embedding Relational
// provides the method through promotion.
type Node interface {
	Relations() *Relational
}

// Relational is the embeddable component holding a node's parent slot and
// its ordered child registry. The zero value is ready to use.
type Relational struct {
	self     Node
	parent   Node
	children *linkedhashmap.Map // string -> Node, insertion ordered
}

// Relations implements Node.
func (r *Relational) Relations() *Relational {
	return r
}

// Node returns the host bound by Apply, or nil if the host was never applied.
func (r *Relational) Node() Node {
	return r.self
}

// Child returns the registered child under key, or nil.
func (r *Relational) Child(key string) Node {
	if r.children == nil {
		return nil
	}
	v, ok := r.children.Get(key)
	if !ok {
		return nil
	}
	return v.(Node)
}

// Keys returns the registered child keys in insertion order.
func (r *Relational) Keys() []string {
	if r.children == nil {
		return nil
	}
	keys := make([]string, 0, r.children.Size())
	for _, k := range r.children.Keys() {
		keys = append(keys, k.(string))
	}
	return keys
}

// SetChild registers child under key on the bound host. See SetChild.
func (r *Relational) SetChild(key string, child Node) error {
	if r.self == nil {
		return newStructureError(key, "cannot set %s on a node that has not been applied", key)
	}
	return SetChild(r.self, key, child)
}

// RemoveChild removes the child under key from the bound host. See RemoveChild.
func (r *Relational) RemoveChild(key string) Node {
	if r.self == nil {
		return nil
	}
	return RemoveChild(r.self, key)
}

func (r *Relational) registry() *linkedhashmap.Map {
	if r.children == nil {
		r.children = linkedhashmap.New()
	}
	return r.children
}

// bind returns the component of n, recording n as its host on first use.
func bind(n Node) *Relational {
	r := n.Relations()
	if r.self == nil {
		r.self = n
	}
	return r
}

// IsRelational reports whether v participates in trees.
func IsRelational(v any) bool {
	n, ok := v.(Node)
	return ok && !isNil(n)
}

// GetParent returns the parent of n, or nil for a root.
func GetParent(n Node) Node {
	return n.Relations().parent
}

// SetParent overwrites the parent slot of n without any validation. Prefer
// SetChild and RemoveChild, which keep both sides of the edge consistent.
func SetParent(n Node, parent Node) {
	bind(n).parent = parent
}

// GetRoot walks the parent chain to the topmost node. A node without a
// parent is its own root.
func GetRoot(n Node) Node {
	root := n
	for p := range EachParent(n) {
		root = p
	}
	return root
}

// Apply binds n as the host of its embedded Relational, sets its parent to
// none and parents its initial children. Initial children are the output of
// ProvideChildren when n is a ChildProvider, otherwise its exported struct
// fields holding nodes (see GetChildren). If any initial child already has a
// parent, nothing is applied and a *StructureError is returned. Applying a
// node that is itself registered as a child fails the same way: detach it
// with RemoveChild first.
func Apply[T Node](n T) (T, error) {
	r := bind(n)
	if r.parent != nil {
		key, _ := KeyOf(n)
		err := newStructureError(key, "cannot apply %s while it has a parent, remove it with RemoveChild first", key)
		log.ErrorErr(log.CatTree, "Apply rejected", err)
		return n, err
	}
	r.self = n

	initial, err := initialChildren(n)
	if err != nil {
		log.ErrorErr(log.CatTree, "Apply rejected", err)
		return n, err
	}

	seen := make(map[*Relational]string, len(initial))
	for _, c := range initial {
		cr := c.Node.Relations()
		if cr.parent != nil && cr.parent.Relations() != r {
			err := newStructureError(c.Key, "cannot set parent of property %s without clearing value's existing parent", c.Key)
			log.ErrorErr(log.CatTree, "Apply rejected", err)
			return n, err
		}
		if other, dup := seen[cr]; dup {
			err := newStructureError(c.Key, "%s and %s hold the same node, a node has at most one parent", other, c.Key)
			log.ErrorErr(log.CatTree, "Apply rejected", err)
			return n, err
		}
		seen[cr] = c.Key
	}

	for _, c := range initial {
		bind(c.Node).parent = n
		r.registry().Put(c.Key, c.Node)
	}
	r.parent = nil

	log.Debug(log.CatTree, "Applied node", "children", len(initial))
	return n, nil
}

// MustApply is like Apply but panics on a structural violation. It is meant
// for constructors, where a violation is a programming error.
func MustApply[T Node](n T) T {
	n, err := Apply(n)
	if err != nil {
		panic(err)
	}
	return n
}

// SetChild registers child under key on n and makes n its parent.
//
// It fails with a *StructureError, changing nothing, when child already has a
// parent (clear it with RemoveChild first) or when child is the root of n's
// own tree. A node previously registered under key is released: its parent
// is cleared.
func SetChild(n Node, key string, child Node) error {
	if child == nil || isNil(child) {
		return newStructureError(key, "%s is not Relational, and cannot be a child", key)
	}

	r := bind(n)
	cr := bind(child)

	if cr.parent != nil {
		err := newStructureError(key, "cannot set parent of property %s without clearing value's existing parent", key)
		log.Warn(log.CatTree, "SetChild rejected", "key", key, "reason", err.Reason)
		return err
	}
	if GetRoot(n).Relations() == cr {
		err := newStructureError(key, "cannot set %s: value is the root of this tree", key)
		log.Warn(log.CatTree, "SetChild rejected", "key", key, "reason", err.Reason)
		return err
	}

	if prev := r.Child(key); prev != nil {
		prev.Relations().parent = nil
	}

	cr.parent = n
	r.registry().Put(key, child)
	log.Debug(log.CatTree, "Set child", "key", key)
	return nil
}

// RemoveChild removes the child registered under key on n, clears its
// parent and returns it. Returns nil if no child is registered under key.
func RemoveChild(n Node, key string) Node {
	r := n.Relations()
	child := r.Child(key)
	if child == nil {
		return nil
	}

	if cr := child.Relations(); cr.parent != nil && cr.parent.Relations() == r {
		cr.parent = nil
	}
	r.children.Remove(key)
	log.Debug(log.CatTree, "Removed child", "key", key)
	return child
}
