package visnet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podcast-insights-go/internal/graph"
)

func TestAddNodeRejectsEmptyID(t *testing.T) {
	n := New(Options{})
	if err := n.AddNode(graph.NodeSpec{ID: "  "}); err == nil {
		t.Fatal("expected error for empty id")
	}
	if n.NodeCount() != 0 {
		t.Fatalf("nodes = %d, want 0", n.NodeCount())
	}
}

func TestAddNodeIgnoresDuplicates(t *testing.T) {
	n := New(Options{})
	for i := 0; i < 2; i++ {
		if err := n.AddNode(graph.NodeSpec{ID: "Alice", Group: "Person"}); err != nil {
			t.Fatalf("add node: %v", err)
		}
	}
	if n.NodeCount() != 1 {
		t.Fatalf("nodes = %d, want 1", n.NodeCount())
	}
}

func TestAddEdgeRequiresEndpoints(t *testing.T) {
	n := New(Options{})
	if err := n.AddNode(graph.NodeSpec{ID: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := n.AddEdge(graph.EdgeSpec{From: "a", To: "b"}); err == nil {
		t.Fatal("expected error for unknown target")
	}
	if err := n.AddEdge(graph.EdgeSpec{From: "b", To: "a"}); err == nil {
		t.Fatal("expected error for unknown source")
	}
	if n.EdgeCount() != 0 {
		t.Fatalf("edges = %d, want 0", n.EdgeCount())
	}
}

func TestSetLayoutRejectsEmptySolver(t *testing.T) {
	n := New(Options{})
	if err := n.SetLayout(graph.Layout{}); err == nil {
		t.Fatal("expected error")
	}
	if n.layout.Physics.Solver != graph.DefaultLayout.Physics.Solver {
		t.Fatalf("layout replaced by invalid value")
	}
}

func TestSaveWritesPage(t *testing.T) {
	n := New(DefaultOptions())
	_ = n.AddNode(graph.NodeSpec{ID: "Alice", Title: "Person", Group: "Person"})
	_ = n.AddNode(graph.NodeSpec{ID: "Acme", Title: "Company", Group: "Company"})
	if err := n.AddEdge(graph.EdgeSpec{From: "Alice", To: "Acme", Label: "works_at"}); err != nil {
		t.Fatal(err)
	}
	if err := n.SetLayout(graph.DefaultLayout); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "graph.html")
	if err := n.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	page := string(raw)
	for _, want := range []string{
		DefaultScriptURL,
		"height: 1200px",
		"width: 100%",
		"#222222",
		`"id":"Alice"`,
		`"label":"works_at"`,
		`"arrows":"to"`,
		`"solver":"forceAtlas2Based"`,
		`"gravitationalConstant":-100`,
		`"springLength":200`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestUndirectedEdgesHaveNoArrows(t *testing.T) {
	opts := DefaultOptions()
	opts.Directed = false
	n := New(opts)
	_ = n.AddNode(graph.NodeSpec{ID: "a"})
	_ = n.AddNode(graph.NodeSpec{ID: "b"})
	_ = n.AddEdge(graph.EdgeSpec{From: "a", To: "b"})
	out, err := n.Render()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), `"arrows"`) {
		t.Fatal("undirected network should not draw arrows")
	}
}

func TestSaveEmptyNetwork(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.html")
	if err := New(Options{}).Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "new vis.DataSet([])") {
		t.Fatal("expected empty data sets")
	}
}

func TestSaveMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "graph.html")
	if err := New(Options{}).Save(path); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestVisualizeEndToEnd(t *testing.T) {
	docs := []graph.Document{{
		Nodes: []graph.Node{{ID: "Alice", Type: "Person"}, {ID: "Acme", Type: "Company"}, {ID: "Lonely", Type: "Person"}},
		Relationships: []graph.Relationship{
			{Source: graph.NodeRef{ID: "Alice"}, Target: graph.NodeRef{ID: "Acme"}, Type: "WORKS_AT"},
			{Source: graph.NodeRef{ID: "Alice"}, Target: graph.NodeRef{ID: "Ghost"}, Type: "KNOWS"},
		},
	}}
	n := New(Options{})
	path := filepath.Join(t.TempDir(), graph.DefaultOutput)
	art, err := graph.Visualize(docs, n, path, nil)
	if err != nil {
		t.Fatalf("visualize: %v", err)
	}
	if art.Nodes != 2 || art.Edges != 1 || art.Skipped != 0 {
		t.Fatalf("artifact = %+v", art)
	}
	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), "Lonely") || strings.Contains(string(raw), "Ghost") {
		t.Fatal("isolated or dangling items rendered")
	}
}
