// Package visnet renders a graph as a standalone vis-network HTML page.
package visnet

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"podcast-insights-go/internal/graph"
)

//go:embed network.html.tmpl
var pageTemplate string

var page = template.Must(template.New("network").Parse(pageTemplate))

// CDN locations used when Options.CDN is empty.
const (
	DefaultScriptURL = "https://cdnjs.cloudflare.com/ajax/libs/vis-network/9.1.2/dist/vis-network.min.js"
	DefaultStyleURL  = "https://cdnjs.cloudflare.com/ajax/libs/vis-network/9.1.2/dist/dist/vis-network.min.css"
)

// Options is the canvas configuration. Empty strings take the DefaultOptions value;
// Directed is used as given.
type Options struct {
	Title     string
	Height    string
	Width     string
	Directed  bool
	BGColor   string
	FontColor string
	ScriptURL string
	StyleURL  string
}

func DefaultOptions() Options {
	return Options{
		Title:     "Knowledge Graph",
		Height:    "1200px",
		Width:     "100%",
		Directed:  true,
		BGColor:   "#222222",
		FontColor: "white",
		ScriptURL: DefaultScriptURL,
		StyleURL:  DefaultStyleURL,
	}
}

type font struct {
	Color string `json:"color"`
}

type visNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title,omitempty"`
	Group string `json:"group,omitempty"`
	Shape string `json:"shape"`
	Font  font   `json:"font"`
}

type visEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Label  string `json:"label,omitempty"`
	Arrows string `json:"arrows,omitempty"`
}

// Network collects nodes and edges and writes them out on Save. It implements graph.Renderer.
type Network struct {
	opts   Options
	nodes  []visNode
	index  map[string]bool
	edges  []visEdge
	layout graph.Layout
}

var _ graph.Renderer = (*Network)(nil)

func New(opts Options) *Network {
	def := DefaultOptions()
	if opts.Height == "" {
		opts.Height = def.Height
	}
	if opts.Width == "" {
		opts.Width = def.Width
	}
	if opts.BGColor == "" {
		opts.BGColor = def.BGColor
	}
	if opts.FontColor == "" {
		opts.FontColor = def.FontColor
	}
	if opts.ScriptURL == "" {
		opts.ScriptURL = def.ScriptURL
	}
	if opts.StyleURL == "" {
		opts.StyleURL = def.StyleURL
	}
	if opts.Title == "" {
		opts.Title = def.Title
	}
	return &Network{opts: opts, index: map[string]bool{}, layout: graph.DefaultLayout}
}

// AddNode registers a node. Re-adding an existing id is a no-op.
func (n *Network) AddNode(node graph.NodeSpec) error {
	if strings.TrimSpace(node.ID) == "" {
		return errors.New("node id is empty")
	}
	if n.index[node.ID] {
		return nil
	}
	label := node.Label
	if label == "" {
		label = node.ID
	}
	n.index[node.ID] = true
	n.nodes = append(n.nodes, visNode{
		ID:    node.ID,
		Label: label,
		Title: node.Title,
		Group: node.Group,
		Shape: "dot",
		Font:  font{Color: n.opts.FontColor},
	})
	return nil
}

// AddEdge registers an edge between two already registered nodes.
func (n *Network) AddEdge(edge graph.EdgeSpec) error {
	if !n.index[edge.From] {
		return fmt.Errorf("non existent node %q", edge.From)
	}
	if !n.index[edge.To] {
		return fmt.Errorf("non existent node %q", edge.To)
	}
	e := visEdge{From: edge.From, To: edge.To, Label: edge.Label}
	if n.opts.Directed {
		e.Arrows = "to"
	}
	n.edges = append(n.edges, e)
	return nil
}

func (n *Network) SetLayout(l graph.Layout) error {
	if l.Physics.Solver == "" {
		return errors.New("layout solver is empty")
	}
	n.layout = l
	return nil
}

func (n *Network) NodeCount() int { return len(n.nodes) }
func (n *Network) EdgeCount() int { return len(n.edges) }

type pageData struct {
	Options Options
	Nodes   []visNode
	Edges   []visEdge
	Layout  graph.Layout
}

// Render writes the page to a byte slice.
func (n *Network) Render() ([]byte, error) {
	data := pageData{Options: n.opts, Nodes: n.nodes, Edges: n.edges, Layout: n.layout}
	if data.Nodes == nil {
		data.Nodes = []visNode{}
	}
	if data.Edges == nil {
		data.Edges = []visEdge{}
	}
	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

// Save renders the page and replaces path atomically.
func (n *Network) Save(path string) error {
	out, err := n.Render()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".graph-*.html")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write graph: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close graph: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("commit graph: %w", err)
	}
	return nil
}
