package production

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/comalice/mvix"
)

// DOTVisualizer renders the transition graph observed in a trace. States
// become nodes, actions become edges.
type DOTVisualizer struct{}

// Edge is one distinct (from, action, to) triple seen in a trace.
type Edge struct {
	From   string
	To     string
	Action string
	Count  int
}

// ExportDOT generates Graphviz DOT source for records. The first state is
// drawn bold and the latest state is filled.
func (v *DOTVisualizer) ExportDOT(records []mvix.TransitionRecord) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph Transitions {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)
	if len(records) == 0 {
		buf.WriteString("}\n")
		return buf.String()
	}

	initial := records[0].From
	latest := records[len(records)-1].To

	for _, state := range collectStates(records) {
		style := ""
		switch state {
		case latest:
			style = ` style="rounded,filled" fillcolor=lightgreen`
		case initial:
			style = ` style="rounded,bold"`
		}
		fmt.Fprintf(&buf, "  %s [label=%s%s];\n", quote(state), quote(state), style)
	}

	for _, e := range CollectEdges(records) {
		label := e.Action
		if e.Count > 1 {
			label = fmt.Sprintf("%s (%d)", e.Action, e.Count)
		}
		fmt.Fprintf(&buf, "  %s -> %s [label=%s];\n", quote(e.From), quote(e.To), quote(label))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the observed edges to JSON.
func (v *DOTVisualizer) ExportJSON(records []mvix.TransitionRecord) ([]byte, error) {
	return json.MarshalIndent(CollectEdges(records), "", "  ")
}

// CollectEdges groups records by (from, action, to) in order of first sight.
func CollectEdges(records []mvix.TransitionRecord) []Edge {
	index := make(map[[3]string]int)
	var edges []Edge
	for _, r := range records {
		key := [3]string{r.From, r.Action, r.To}
		if i, ok := index[key]; ok {
			edges[i].Count++
			continue
		}
		index[key] = len(edges)
		edges = append(edges, Edge{From: r.From, To: r.To, Action: r.Action, Count: 1})
	}
	return edges
}

func collectStates(records []mvix.TransitionRecord) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		seen[r.From] = true
		seen[r.To] = true
	}
	states := make([]string, 0, len(seen))
	for s := range seen {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
