package graph

import (
	"errors"
	"testing"
)

type fakeRenderer struct {
	nodes    []NodeSpec
	edges    []EdgeSpec
	layout   *Layout
	saved    string
	failNode string
	failEdge string
	saveErr  error
}

func (f *fakeRenderer) AddNode(n NodeSpec) error {
	if n.ID == f.failNode {
		return errors.New("bad node")
	}
	f.nodes = append(f.nodes, n)
	return nil
}

func (f *fakeRenderer) AddEdge(e EdgeSpec) error {
	if e.From+"->"+e.To == f.failEdge {
		return errors.New("bad edge")
	}
	f.edges = append(f.edges, e)
	return nil
}

func (f *fakeRenderer) SetLayout(l Layout) error {
	f.layout = &l
	return nil
}

func (f *fakeRenderer) Save(path string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = path
	return nil
}

func testDocs() []Document {
	return []Document{{
		Nodes: []Node{{ID: "Alice", Type: "Person"}, {ID: "Go", Type: "Language"}, {ID: "Bob", Type: "Person"}},
		Relationships: []Relationship{
			rel("Alice", "Go", "USES"),
			rel("Bob", "Go", "Uses"),
			rel("Alice", "Ghost", "KNOWS"),
		},
	}}
}

func TestRenderRegistersLabelsAndGroups(t *testing.T) {
	fr := &fakeRenderer{}
	sg, _, _ := SanitizeFirst(testDocs())
	res := Render(fr, sg, DefaultLayout, nil)

	if len(res.Failed()) != 0 {
		t.Fatalf("unexpected failures %+v", res.Failed())
	}
	if len(fr.nodes) != 3 || len(fr.edges) != 2 {
		t.Fatalf("unexpected registrations nodes=%d edges=%d", len(fr.nodes), len(fr.edges))
	}
	n := fr.nodes[0]
	if n.ID != "Alice" || n.Label != "Alice" || n.Title != "Person" || n.Group != "Person" {
		t.Fatalf("unexpected node spec %+v", n)
	}
	if fr.edges[0].Label != "uses" || fr.edges[1].Label != "uses" {
		t.Fatalf("edge labels not lower-cased: %+v", fr.edges)
	}
	if fr.layout == nil || fr.layout.Physics.Solver != "forceAtlas2Based" {
		t.Fatalf("layout not applied: %+v", fr.layout)
	}
}

func TestRenderContinuesPastFailedItems(t *testing.T) {
	fr := &fakeRenderer{failNode: "Alice", failEdge: "Alice->Go"}
	art, err := Visualize(testDocs(), fr, "out.html", nil)
	if err != nil {
		t.Fatalf("Visualize: %v", err)
	}
	if len(fr.nodes) != 2 || len(fr.edges) != 1 {
		t.Fatalf("other items should still register: nodes=%v edges=%v", fr.nodes, fr.edges)
	}
	if fr.saved != "out.html" {
		t.Fatal("save was not attempted")
	}
	if art.Skipped != 2 || art.Nodes != 2 || art.Edges != 1 {
		t.Fatalf("unexpected artifact %+v", art)
	}
}

func TestVisualizeReportsSaveFailure(t *testing.T) {
	fr := &fakeRenderer{saveErr: errors.New("disk full")}
	_, err := Visualize(testDocs(), fr, "", nil)
	if err == nil || !errors.Is(err, fr.saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}
	if len(fr.nodes) != 3 {
		t.Fatal("registration should have happened before save")
	}
}

func TestVisualizeDefaultsOutputPath(t *testing.T) {
	fr := &fakeRenderer{}
	art, err := Visualize(testDocs(), fr, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if art.Path != DefaultOutput || fr.saved != DefaultOutput {
		t.Fatalf("expected default output, got %q / %q", art.Path, fr.saved)
	}
}

func TestVisualizeNoDocuments(t *testing.T) {
	if _, err := Visualize(nil, &fakeRenderer{}, "", nil); !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
}
