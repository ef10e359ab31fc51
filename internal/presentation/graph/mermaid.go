// Package graph renders built graph sets as Mermaid flowcharts for the
// describe command and for embedding in markdown reports.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/rigno/pkg/domain"
)

// edgeDetailLimit caps how many edges are drawn individually. Above it the
// stage collapses to a single annotated arrow, otherwise the diagram becomes
// unreadable for realistic meshes.
const edgeDetailLimit = 48

// GenerateMermaid produces a Mermaid flowchart of the encode-process-decode
// pipeline in a graph set. Physical nodes and region levels become subgraph
// boxes annotated with node and edge counts; stages with few edges are drawn
// edge by edge so small test meshes can be inspected visually.
func GenerateMermaid(gs *domain.GraphSet) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	sb.WriteString(fmt.Sprintf("    P[/\"physical nodes (%d)\"/]\n", gs.Encoder.NumSrc))

	sb.WriteString("    subgraph processor\n")
	for i := range gs.Processor {
		pg := &gs.Processor[i]
		sb.WriteString(fmt.Sprintf("        L%d[\"level %d: %d regions, %d edges\"]\n",
			pg.Level, pg.Level, pg.NumDst, pg.NumEdges()))
	}
	sb.WriteString("    end\n")

	sb.WriteString(fmt.Sprintf("    Q[/\"output nodes (%d)\"/]\n", gs.Decoder.NumDst))

	writeStage(&sb, &gs.Encoder, "P", "L0")
	for i := 1; i < len(gs.Processor); i++ {
		from := fmt.Sprintf("L%d", gs.Processor[i-1].Level)
		to := fmt.Sprintf("L%d", gs.Processor[i].Level)
		sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", from, to))
	}
	writeStage(&sb, &gs.Decoder, "L0", "Q")

	sb.WriteString("\n    %% Stage Styles\n")
	sb.WriteString("    classDef regions fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	for i := range gs.Processor {
		sb.WriteString(fmt.Sprintf("    class L%d regions;\n", gs.Processor[i].Level))
	}

	return sb.String()
}

// writeStage draws one bipartite stage. Small graphs get an arrow per edge
// between per-node boxes; larger ones get a single summary arrow.
func writeStage(sb *strings.Builder, g *domain.Graph, from, to string) {
	if g.NumEdges() > edgeDetailLimit {
		sb.WriteString(fmt.Sprintf("    %s -- \"%s: %d edges\" --> %s\n",
			from, g.Kind, g.NumEdges(), to))
		return
	}
	for e := 0; e < g.NumEdges(); e++ {
		sb.WriteString(fmt.Sprintf("    %s -- \"%s %d->%d\" --> %s\n",
			from, g.Kind, g.Src[e], g.Dst[e], to))
	}
}
