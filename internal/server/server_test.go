package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Qefaraki/treescape/pkg/store"
	"github.com/Qefaraki/treescape/pkg/tree"
)

func fixtureNodes() []tree.Node {
	return []tree.Node{
		{ID: "root", Name: "Ibrahim", Generation: 0},
		{ID: "a", ParentID: "root", Generation: 1, SiblingOrder: 0, Name: "Amina"},
		{ID: "b", ParentID: "root", Generation: 1, SiblingOrder: 1, Name: "Bilal"},
		{ID: "a1", ParentID: "a", Generation: 2, SiblingOrder: 0, Name: "Aisha"},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *store.MemorySource) {
	t.Helper()
	src := store.NewMemorySource(fixtureNodes())
	ts := httptest.NewServer(New(src, nil).Router())
	t.Cleanup(ts.Close)
	return ts, src
}

func getTree(t *testing.T, url string) tree.Tree {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var tr tree.Tree
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return tr
}

func getError(t *testing.T, url string) (int, errorBody) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp.StatusCode, body
}

func TestRegionReturnsIntersectingNodes(t *testing.T) {
	ts, src := newTestServer(t)

	pn, ok := src.PlacedNode("root")
	if !ok {
		t.Fatal("root not placed")
	}
	b := pn.Bounds()
	url := fmt.Sprintf("%s/v1/nodes?minx=%f&miny=%f&maxx=%f&maxy=%f",
		ts.URL, b.MinX-1, b.MinY-1, b.MaxX+1, b.MaxY+1)

	tr := getTree(t, url)
	found := false
	for _, n := range tr.Nodes {
		if n.ID == "root" {
			found = true
		}
	}
	if !found {
		t.Errorf("root bounds query missing root, got %d nodes", len(tr.Nodes))
	}
}

func TestRegionEmptyFarAway(t *testing.T) {
	ts, _ := newTestServer(t)

	tr := getTree(t, ts.URL+"/v1/nodes?minx=90000&miny=90000&maxx=91000&maxy=91000")
	if len(tr.Nodes) != 0 {
		t.Errorf("expected empty region, got %d nodes", len(tr.Nodes))
	}
}

func TestRegionRejectsInvertedRect(t *testing.T) {
	ts, _ := newTestServer(t)

	status, body := getError(t, ts.URL+"/v1/nodes?minx=100&miny=0&maxx=0&maxy=100")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if body.Code == "" {
		t.Error("error body missing code")
	}
}

func TestRegionRejectsMalformedCoord(t *testing.T) {
	ts, _ := newTestServer(t)

	status, _ := getError(t, ts.URL+"/v1/nodes?minx=abc&miny=0&maxx=10&maxy=10")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestInitialDefaultsToSourceRoot(t *testing.T) {
	ts, _ := newTestServer(t)

	tr := getTree(t, ts.URL+"/v1/nodes/initial")
	if len(tr.Nodes) != 4 {
		t.Fatalf("expected full fixture, got %d nodes", len(tr.Nodes))
	}
	if tr.Nodes[0].ID != "root" {
		t.Errorf("first node = %s, want root", tr.Nodes[0].ID)
	}
}

func TestInitialLimitsGenerations(t *testing.T) {
	ts, _ := newTestServer(t)

	tr := getTree(t, ts.URL+"/v1/nodes/initial?generations=1")
	for _, n := range tr.Nodes {
		if n.Generation > 1 {
			t.Errorf("node %s at generation %d exceeds the requested window", n.ID, n.Generation)
		}
	}
	if len(tr.Nodes) != 3 {
		t.Errorf("expected root plus two children, got %d", len(tr.Nodes))
	}
}

func TestInitialUnknownRootIs404(t *testing.T) {
	ts, _ := newTestServer(t)

	status, _ := getError(t, ts.URL+"/v1/nodes/initial?root=ghost")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
}

func TestInitialSubtreeRoot(t *testing.T) {
	ts, _ := newTestServer(t)

	tr := getTree(t, ts.URL+"/v1/nodes/initial?root=a")
	ids := make(map[string]bool, len(tr.Nodes))
	for _, n := range tr.Nodes {
		ids[n.ID] = true
	}
	if !ids["a"] || !ids["a1"] {
		t.Errorf("subtree of a incomplete: %v", ids)
	}
	if ids["b"] {
		t.Error("sibling subtree must not leak into the response")
	}
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
