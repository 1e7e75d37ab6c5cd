package graph

import (
	"fmt"

	"podcast-insights-go/internal/logger"
)

// DefaultOutput is where the rendered graph is written unless configured otherwise.
const DefaultOutput = "knowledge_graph.html"

// ForceAtlas2 holds the force-directed solver parameters.
type ForceAtlas2 struct {
	GravitationalConstant float64 `json:"gravitationalConstant"`
	CentralGravity        float64 `json:"centralGravity"`
	SpringLength          float64 `json:"springLength"`
	SpringConstant        float64 `json:"springConstant"`
}

type Physics struct {
	ForceAtlas2Based ForceAtlas2 `json:"forceAtlas2Based"`
	MinVelocity      float64     `json:"minVelocity"`
	Solver           string      `json:"solver"`
}

// Layout is static render configuration. It is never derived from the data.
type Layout struct {
	Physics Physics `json:"physics"`
}

// DefaultLayout is the fixed force-directed layout used for every render.
var DefaultLayout = Layout{
	Physics: Physics{
		ForceAtlas2Based: ForceAtlas2{
			GravitationalConstant: -100,
			CentralGravity:        0.01,
			SpringLength:          200,
			SpringConstant:        0.08,
		},
		MinVelocity: 0.75,
		Solver:      "forceAtlas2Based",
	},
}

type NodeSpec struct {
	ID    string
	Label string
	Title string
	Group string
}

type EdgeSpec struct {
	From  string
	To    string
	Label string
}

// Renderer is the layout engine sink. Registration calls may fail per item.
type Renderer interface {
	AddNode(NodeSpec) error
	AddEdge(EdgeSpec) error
	SetLayout(Layout) error
	Save(path string) error
}

type ItemKind string

const (
	KindNode ItemKind = "node"
	KindEdge ItemKind = "edge"
)

// ItemResult is the outcome of registering one node or edge.
type ItemResult struct {
	Kind ItemKind
	ID   string
	Err  error
}

type RenderResult struct {
	Items []ItemResult
}

func (r RenderResult) Failed() []ItemResult {
	var out []ItemResult
	for _, it := range r.Items {
		if it.Err != nil {
			out = append(out, it)
		}
	}
	return out
}

func (r RenderResult) Registered(kind ItemKind) int {
	n := 0
	for _, it := range r.Items {
		if it.Kind == kind && it.Err == nil {
			n++
		}
	}
	return n
}

// Render registers every node and edge of sg. A failed registration is logged
// and recorded; the batch carries on with the next item.
func Render(r Renderer, sg Subgraph, layout Layout, log *logger.Logger) RenderResult {
	if log == nil {
		log = logger.Discard()
	}
	var res RenderResult
	for _, n := range sg.Nodes {
		err := r.AddNode(NodeSpec{ID: n.ID, Label: n.ID, Title: n.Type, Group: n.Type})
		if err != nil {
			log.WithError(err).WithField("node", n.ID).Warn("skipping node")
		}
		res.Items = append(res.Items, ItemResult{Kind: KindNode, ID: n.ID, Err: err})
	}
	for _, rel := range sg.Relationships {
		id := rel.Source.ID + "->" + rel.Target.ID
		err := r.AddEdge(EdgeSpec{From: rel.Source.ID, To: rel.Target.ID, Label: EdgeLabel(rel.Type)})
		if err != nil {
			log.WithError(err).WithField("edge", id).Warn("skipping edge")
		}
		res.Items = append(res.Items, ItemResult{Kind: KindEdge, ID: id, Err: err})
	}
	if err := r.SetLayout(layout); err != nil {
		log.WithError(err).Warn("layout options rejected, using renderer defaults")
	}
	return res
}

// Artifact describes a saved render.
type Artifact struct {
	Path    string
	Nodes   int
	Edges   int
	Skipped int
	Stats   Stats
}

// Visualize sanitizes the first document, renders it and saves the artifact.
// Only source and save failures are returned; item failures are counted in Skipped.
func Visualize(docs []Document, r Renderer, path string, log *logger.Logger) (Artifact, error) {
	if log == nil {
		log = logger.Discard()
	}
	log = log.Component("graph")
	if path == "" {
		path = DefaultOutput
	}

	sg, ignored, err := SanitizeFirst(docs)
	if err != nil {
		return Artifact{}, err
	}
	if ignored > 0 {
		log.WithField("ignored_documents", ignored).Warn("only the first graph document is rendered")
	}
	stats := Summarize(sg)
	log.WithField("nodes", stats.Nodes).
		WithField("edges", stats.Edges).
		WithField("dropped_relationships", stats.Dropped).
		WithField("top_types", stats.TopTypes(3)).
		Info("graph sanitized")

	res := Render(r, sg, DefaultLayout, log)
	art := Artifact{
		Path:    path,
		Nodes:   res.Registered(KindNode),
		Edges:   res.Registered(KindEdge),
		Skipped: len(res.Failed()),
		Stats:   stats,
	}
	if err := r.Save(path); err != nil {
		log.WithError(err).WithField("path", path).Error("error saving graph")
		return art, fmt.Errorf("save graph to %s: %w", path, err)
	}
	log.WithField("path", path).Info("graph saved")
	return art, nil
}
