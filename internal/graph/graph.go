// Package graph reduces extracted knowledge-graph documents to a renderable subgraph.
package graph

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrNoDocuments is returned when there is no extraction result to render.
var ErrNoDocuments = errors.New("no graph documents")

type Node struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// NodeRef points at a node by id. It decodes from either a bare id string or
// a node object ({"id": ..., "type": ...}).
type NodeRef struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

func (r *NodeRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	type plain NodeRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = NodeRef(p)
	return nil
}

type Relationship struct {
	Source     NodeRef        `json:"source"`
	Target     NodeRef        `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Document is one extraction result.
type Document struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// Subgraph holds the nodes and relationships that survive sanitization.
type Subgraph struct {
	Nodes         []Node
	Relationships []Relationship
	// Dropped counts relationships with an unresolved endpoint.
	Dropped int
}

// Sanitize keeps relationships whose endpoints both resolve to a node, and the
// nodes those relationships reference. Nodes without a valid relationship are
// left out. On duplicate node ids the last node wins. Output nodes are in
// first-reference order, relationships in input order.
func Sanitize(nodes []Node, rels []Relationship) Subgraph {
	lookup := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		lookup[n.ID] = n
	}

	sg := Subgraph{Nodes: []Node{}, Relationships: []Relationship{}}
	seen := make(map[string]bool)
	for _, r := range rels {
		src, okSrc := lookup[r.Source.ID]
		dst, okDst := lookup[r.Target.ID]
		if !okSrc || !okDst {
			sg.Dropped++
			continue
		}
		sg.Relationships = append(sg.Relationships, r)
		for _, n := range []Node{src, dst} {
			if !seen[n.ID] {
				seen[n.ID] = true
				sg.Nodes = append(sg.Nodes, n)
			}
		}
	}
	return sg
}

// SanitizeFirst sanitizes the first document. Later documents are not merged;
// ignored reports how many were skipped.
func SanitizeFirst(docs []Document) (sg Subgraph, ignored int, err error) {
	if len(docs) == 0 {
		return Subgraph{}, 0, ErrNoDocuments
	}
	return Sanitize(docs[0].Nodes, docs[0].Relationships), len(docs) - 1, nil
}
