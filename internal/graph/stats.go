package graph

import (
	"sort"
	"strings"
)

// Stats summarizes a subgraph for logging and the CLI summary.
type Stats struct {
	Nodes       int            `json:"nodes"`
	Edges       int            `json:"edges"`
	Dropped     int            `json:"dropped"`
	NodesByType map[string]int `json:"nodes_by_type"`
	EdgesByType map[string]int `json:"edges_by_type"`
}

func Summarize(sg Subgraph) Stats {
	st := Stats{
		Nodes:       len(sg.Nodes),
		Edges:       len(sg.Relationships),
		Dropped:     sg.Dropped,
		NodesByType: map[string]int{},
		EdgesByType: map[string]int{},
	}
	for _, n := range sg.Nodes {
		st.NodesByType[n.Type]++
	}
	for _, r := range sg.Relationships {
		st.EdgesByType[EdgeLabel(r.Type)]++
	}
	return st
}

// TopTypes returns up to n node types ordered by count, then name.
func (s Stats) TopTypes(n int) []string {
	type pc struct {
		t string
		c int
	}
	var arr []pc
	for k, v := range s.NodesByType {
		arr = append(arr, pc{k, v})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].c != arr[j].c {
			return arr[i].c > arr[j].c
		}
		return arr[i].t < arr[j].t
	})
	out := []string{}
	for i := 0; i < len(arr) && i < n; i++ {
		out = append(out, arr[i].t)
	}
	return out
}

// EdgeLabel is the display label of a relationship type.
func EdgeLabel(relType string) string {
	return strings.ToLower(relType)
}
