package category

import (
	"strings"
	"testing"
)

func TestFlattenPathNil(t *testing.T) {
	if got := FlattenPath(nil); got != Uncategorized {
		t.Fatalf("expected %q, got %q", Uncategorized, got)
	}
}

func TestFlattenPathSingle(t *testing.T) {
	if got := FlattenPath(&Node{Name: "Electronics"}); got != "Electronics" {
		t.Fatalf("expected Electronics, got %q", got)
	}
}

func TestFlattenPathChain(t *testing.T) {
	leaf := &Node{
		Name: "Electronics",
		Parent: &Node{
			Name: "Home",
		},
	}
	if got := FlattenPath(leaf); got != "Home > Electronics" {
		t.Fatalf("expected root-first order, got %q", got)
	}
}

func TestFlattenPathSkipsBlankNames(t *testing.T) {
	leaf := &Node{
		Name:   "Audio",
		Parent: &Node{Name: "  ", Parent: &Node{Name: "Electronics"}},
	}
	if got := FlattenPath(leaf); got != "Electronics > Audio" {
		t.Fatalf("expected blank segment dropped, got %q", got)
	}
}

func TestFlattenPathCyclicTruncates(t *testing.T) {
	a := &Node{Name: "A"}
	b := &Node{Name: "B", Parent: a}
	a.Parent = b

	got := FlattenPath(a)
	if segments := strings.Split(got, " > "); len(segments) != maxDepth {
		t.Fatalf("expected walk truncated at %d segments, got %d (%q)", maxDepth, len(segments), got)
	}
}
