package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"podcast-insights-go/internal/graph"
)

// Sheet names looked up case-insensitively. Without them the first two sheets are used.
const (
	NodesSheet         = "nodes"
	RelationshipsSheet = "relationships"
)

// Workbook loads one document from an xlsx file with a nodes sheet and a
// relationships sheet. Columns are found by header; extra columns become properties.
type Workbook struct {
	Path string
}

func (w Workbook) Load(ctx context.Context) ([]graph.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(w.Path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	nodesSheet, relsSheet, err := pickSheets(f.GetSheetList())
	if err != nil {
		return nil, err
	}
	nodeRows, err := f.GetRows(nodesSheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	relRows, err := f.GetRows(relsSheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	nodes, err := parseNodes(nodeRows)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", nodesSheet, err)
	}
	rels, err := parseRelationships(relRows)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", relsSheet, err)
	}
	return []graph.Document{{Nodes: nodes, Relationships: rels}}, nil
}

func pickSheets(sheets []string) (string, string, error) {
	var nodes, rels string
	for _, s := range sheets {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case NodesSheet:
			nodes = s
		case RelationshipsSheet, "edges":
			rels = s
		}
	}
	if nodes != "" && rels != "" {
		return nodes, rels, nil
	}
	if len(sheets) < 2 {
		return "", "", fmt.Errorf("need a nodes sheet and a relationships sheet, found %d sheets", len(sheets))
	}
	return sheets[0], sheets[1], nil
}

// columns maps header positions. Unclaimed headers are kept as property names.
type columns struct {
	idx   map[string]int
	extra map[int]string
}

func headerColumns(header []string, roles map[string][]string) columns {
	c := columns{idx: map[string]int{}, extra: map[int]string{}}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		if l == "" {
			continue
		}
		claimed := false
		for role, names := range roles {
			if _, ok := c.idx[role]; ok {
				continue
			}
			for _, n := range names {
				if l == n {
					c.idx[role] = i
					claimed = true
					break
				}
			}
			if claimed {
				break
			}
		}
		if !claimed {
			c.extra[i] = strings.TrimSpace(h)
		}
	}
	return c
}

func (c columns) value(row []string, role string) string {
	i, ok := c.idx[role]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columns) properties(row []string) map[string]any {
	var props map[string]any
	for i, name := range c.extra {
		if i >= len(row) || strings.TrimSpace(row[i]) == "" {
			continue
		}
		if props == nil {
			props = map[string]any{}
		}
		props[name] = strings.TrimSpace(row[i])
	}
	return props
}

var (
	nodeRoles = map[string][]string{
		"id":   {"id", "node", "node id", "name"},
		"type": {"type", "label", "kind", "node type"},
	}
	relRoles = map[string][]string{
		"source": {"source", "from", "start", "head", "source id"},
		"target": {"target", "to", "end", "tail", "target id"},
		"type":   {"type", "relation", "relationship", "label"},
	}
)

func parseNodes(rows [][]string) ([]graph.Node, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	cols := headerColumns(rows[0], nodeRoles)
	if _, ok := cols.idx["id"]; !ok {
		return nil, fmt.Errorf("no id column in header %v", rows[0])
	}
	var out []graph.Node
	for _, r := range rows[1:] {
		id := cols.value(r, "id")
		if id == "" {
			// blank rows are common at the end of hand-edited sheets
			continue
		}
		out = append(out, graph.Node{ID: id, Type: cols.value(r, "type"), Properties: cols.properties(r)})
	}
	return out, nil
}

func parseRelationships(rows [][]string) ([]graph.Relationship, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	cols := headerColumns(rows[0], relRoles)
	for _, role := range []string{"source", "target"} {
		if _, ok := cols.idx[role]; !ok {
			return nil, fmt.Errorf("no %s column in header %v", role, rows[0])
		}
	}
	var out []graph.Relationship
	for _, r := range rows[1:] {
		src, dst := cols.value(r, "source"), cols.value(r, "target")
		if src == "" && dst == "" {
			continue
		}
		// One-sided rows are kept; the sanitizer drops them as dangling.
		out = append(out, graph.Relationship{
			Source:     graph.NodeRef{ID: src},
			Target:     graph.NodeRef{ID: dst},
			Type:       cols.value(r, "type"),
			Properties: cols.properties(r),
		})
	}
	return out, nil
}
