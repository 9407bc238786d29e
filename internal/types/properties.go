package types

import "fmt"

// GetPropertyType returns the type of a named property on id's node (e.g.
// an array's "length" property is u64), or an error if the node exposes no
// such property.
func (g *Graph) GetPropertyType(id ID, name string) (ID, error) {
	n := g.Node(id)
	if n.Kind == KindArray && name == "length" {
		return g.U64, nil
	}
	return 0, fmt.Errorf("type %s has no property %q", g.String(id), name)
}

// GetProperty constant-folds a property access where possible. Only
// "length" on an array is foldable at the type-graph level; anything else
// is the caller's responsibility to emit code for.
func (g *Graph) GetProperty(id ID, name string) (int64, error) {
	n := g.Node(id)
	if n.Kind == KindArray && name == "length" {
		return int64(n.Count), nil
	}
	return 0, fmt.Errorf("type %s has no constant-foldable property %q", g.String(id), name)
}
