package category

import "strings"

// Uncategorized is the breadcrumb shown when a product carries no category.
const Uncategorized = "Uncategorized"

// maxDepth bounds the parent walk. Category data arrives from an external
// API and a cyclic parent link must not hang the request; the walk
// truncates instead.
const maxDepth = 32

// Node is a category as delivered by the upstream API: a name plus an
// optional back-reference to its parent, expanded recursively. The chain
// is display-only and never mutated.
type Node struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Slug   string `json:"slug,omitempty"`
	Parent *Node  `json:"parentCategory,omitempty"`
}

// FlattenPath walks the parent chain leaf-to-root and renders the
// root-first breadcrumb, e.g. "Home > Electronics > Audio". A nil node
// yields Uncategorized.
func FlattenPath(n *Node) string {
	names := PathNames(n)
	if len(names) == 0 {
		return Uncategorized
	}
	return strings.Join(names, " > ")
}

// PathNames returns the breadcrumb segments root-first. Blank names are
// skipped; the walk stops after maxDepth links.
func PathNames(n *Node) []string {
	if n == nil {
		return nil
	}
	names := make([]string, 0, 4)
	for node, depth := n, 0; node != nil && depth < maxDepth; node, depth = node.Parent, depth+1 {
		if name := strings.TrimSpace(node.Name); name != "" {
			names = append(names, name)
		}
	}
	// Collected leaf-first, rendered root-first.
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names
}
