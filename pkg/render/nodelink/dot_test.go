package nodelink

import (
	"strings"
	"testing"

	"github.com/Qefaraki/treescape/pkg/tree"
)

func fixture() []tree.Node {
	return []tree.Node{
		{ID: "root", Name: "Ibrahim", Status: tree.StatusDeceased},
		{ID: "a", ParentID: "root", Generation: 1, Name: "Amina", PhotoRef: "photos/a"},
		{ID: "b", ParentID: "root", Generation: 1, Name: "Bilal"},
	}
}

func TestToDOTEdgesAndRanks(t *testing.T) {
	dot := ToDOT(fixture(), Options{})

	for _, want := range []string{
		`"root" -> "a";`,
		`"root" -> "b";`,
		`{ rank=same; "a"; "b" }`,
		"rankdir=TB",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTStyling(t *testing.T) {
	dot := ToDOT(fixture(), Options{})

	if !strings.Contains(dot, "fillcolor=lightgrey") {
		t.Error("deceased node should be grey")
	}
	if !strings.Contains(dot, "peripheries=2") {
		t.Error("node with a photo should have a doubled outline")
	}
}

func TestToDOTDetailedLabels(t *testing.T) {
	dot := ToDOT(fixture(), Options{Detailed: true})

	if !strings.Contains(dot, "generation: 1") {
		t.Error("detailed labels should include the generation")
	}
	if !strings.Contains(dot, "status: deceased") {
		t.Error("detailed labels should include the status")
	}
}

func TestToDOTSkipsDanglingParents(t *testing.T) {
	dot := ToDOT([]tree.Node{
		{ID: "x", ParentID: "missing", Generation: 4, Name: "X"},
	}, Options{})

	if strings.Contains(dot, "missing") {
		t.Error("edges to absent parents should be dropped")
	}
}
