package relational

import (
	"iter"
	"reflect"

	"github.com/ettle/strcase"
)

// TagName is the struct tag consulted when Apply scans fields for children.
// `relational:"key"` renames the child key, `relational:"-"` skips the field.
const TagName = "relational"

// Child is a single key/node entry of Children.
type Child struct {
	Key  string
	Node Node
}

// Children is an ordered mapping from key to child node.
type Children []Child

// Get returns the node under key.
func (c Children) Get(key string) (Node, bool) {
	for _, child := range c {
		if child.Key == key {
			return child.Node, true
		}
	}
	return nil, false
}

// Keys returns the keys in order.
func (c Children) Keys() []string {
	keys := make([]string, len(c))
	for i, child := range c {
		keys[i] = child.Key
	}
	return keys
}

// Nodes returns the nodes in order.
func (c Children) Nodes() []Node {
	nodes := make([]Node, len(c))
	for i, child := range c {
		nodes[i] = child.Node
	}
	return nodes
}

// Len returns the number of children.
func (c Children) Len() int {
	return len(c)
}

// All iterates key/node pairs in order.
func (c Children) All() iter.Seq2[string, Node] {
	return func(yield func(string, Node) bool) {
		for _, child := range c {
			if !yield(child.Key, child.Node) {
				return
			}
		}
	}
}

// ChildProvider is implemented by hosts that compute their own children
// instead of relying on the registry. Every provided node must either have
// no parent yet or already be parented to the provider.
type ChildProvider interface {
	Node
	ProvideChildren() Children
}

// GetChildren returns the children of n. When n is a ChildProvider its output
// is validated and returned, otherwise the registry populated by Apply and
// SetChild is returned in insertion order.
func GetChildren(n Node) (Children, error) {
	if provider, ok := n.(ChildProvider); ok {
		children := provider.ProvideChildren()
		if err := validateProvided(n, children); err != nil {
			return nil, err
		}
		return children, nil
	}

	r := n.Relations()
	if r.children == nil {
		return nil, nil
	}

	children := make(Children, 0, r.children.Size())
	it := r.children.Iterator()
	for it.Next() {
		children = append(children, Child{Key: it.Key().(string), Node: it.Value().(Node)})
	}
	return children, nil
}

// mustChildren is GetChildren for iterators, which cannot return errors.
// An invalid provider output is a programming error and panics with the
// *StructureError.
func mustChildren(n Node) Children {
	children, err := GetChildren(n)
	if err != nil {
		panic(err)
	}
	return children
}

func validateProvided(n Node, children Children) error {
	r := n.Relations()
	for _, child := range children {
		if child.Node == nil || isNil(child.Node) {
			return newStructureError(child.Key, "%s is not Relational, and cannot be a child", child.Key)
		}
		cr := child.Node.Relations()
		if cr == r {
			return newStructureError(child.Key, "%s cannot be a child of itself", child.Key)
		}
		if cr.parent != nil && cr.parent.Relations() != r {
			return newStructureError(child.Key, "%s must be parented to Relational before being provided as child", child.Key)
		}
	}
	return nil
}

// KeyOf returns the key under which n is a child of its parent.
func KeyOf(n Node) (string, bool) {
	parent := GetParent(n)
	if parent == nil {
		return "", false
	}

	r := n.Relations()
	children, err := GetChildren(parent)
	if err != nil {
		// Fall back to the registry, a broken provider should not hide paths.
		children = nil
		for _, key := range parent.Relations().Keys() {
			children = append(children, Child{Key: key, Node: parent.Relations().Child(key)})
		}
	}
	for _, child := range children {
		if child.Node.Relations() == r {
			return child.Key, true
		}
	}
	return "", false
}

// initialChildren computes the children Apply registers.
func initialChildren(n Node) (Children, error) {
	if provider, ok := n.(ChildProvider); ok {
		children := provider.ProvideChildren()
		if err := validateProvided(n, children); err != nil {
			return nil, err
		}
		return children, nil
	}

	var fields []scannedField
	scanFields(reflect.ValueOf(n), 0, &fields)

	self := n.Relations()
	children := make(Children, 0, len(fields))
	depths := make([]int, 0, len(fields))
	index := make(map[string]int, len(fields))
	for _, f := range fields {
		if f.node.Relations() == self {
			continue
		}
		if i, ok := index[f.key]; ok {
			// Shallower fields shadow promoted ones, as in Go selectors.
			if f.depth < depths[i] {
				children[i].Node = f.node
				depths[i] = f.depth
			}
			continue
		}
		index[f.key] = len(children)
		children = append(children, Child{Key: f.key, Node: f.node})
		depths = append(depths, f.depth)
	}
	return children, nil
}

type scannedField struct {
	key   string
	node  Node
	depth int
}

// maxEmbedDepth bounds the descent into embedded structs.
const maxEmbedDepth = 32

// scanFields collects exported pointer or interface fields holding nodes, in
// declaration order, descending into embedded structs.
func scanFields(v reflect.Value, depth int, out *[]scannedField) {
	if depth > maxEmbedDepth {
		return
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get(TagName)
		if tag == "-" {
			continue
		}

		fv := v.Field(i)
		if field.Anonymous {
			scanFields(fv, depth+1, out)
			continue
		}
		if fv.Kind() != reflect.Pointer && fv.Kind() != reflect.Interface {
			continue
		}
		if fv.IsNil() {
			continue
		}
		node, ok := fv.Interface().(Node)
		if !ok || isNil(node) {
			continue
		}

		key := tag
		if key == "" {
			key = strcase.ToCamel(field.Name)
		}
		*out = append(*out, scannedField{key: key, node: node, depth: depth})
	}
}

// isNil reports whether n holds a typed nil pointer.
func isNil(n any) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
