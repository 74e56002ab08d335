package relational

import (
	"slices"
	"strings"
)

// Path returns the child keys leading from the root of n's tree down to n.
// The root contributes no key, so a root has an empty path. A node whose key
// cannot be resolved in its parent ends the path there.
func Path(n Node) []string {
	var keys []string
	seen := make(map[*Relational]struct{})
	for node := n; node != nil; node = GetParent(node) {
		r := node.Relations()
		if _, ok := seen[r]; ok {
			break
		}
		seen[r] = struct{}{}

		key, ok := KeyOf(node)
		if !ok {
			break
		}
		keys = append(keys, key)
	}
	slices.Reverse(keys)
	return keys
}

// PathString is Path joined with "/", e.g. "mom/you".
func PathString(n Node) string {
	return strings.Join(Path(n), "/")
}
