package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/rigno/pkg/domain"
)

func testGraphSet(encoderEdges int) *domain.GraphSet {
	enc := domain.Graph{Kind: domain.EdgeEncoder, NumSrc: 9, NumDst: 3}
	for e := 0; e < encoderEdges; e++ {
		enc.Src = append(enc.Src, e%9)
		enc.Dst = append(enc.Dst, e%3)
	}
	return &domain.GraphSet{
		Encoder: enc,
		Processor: []domain.Graph{
			{Kind: domain.EdgeProcessor, Level: 0, Src: []int{0, 1}, Dst: []int{1, 0}, NumSrc: 3, NumDst: 3},
			{Kind: domain.EdgeProcessor, Level: 1, Src: []int{0}, Dst: []int{1}, NumSrc: 2, NumDst: 2},
		},
		Decoder: domain.Graph{Kind: domain.EdgeDecoder, Src: []int{0, 1}, Dst: []int{4, 5}, NumSrc: 3, NumDst: 9},
	}
}

func TestGenerateMermaidStructure(t *testing.T) {
	out := GenerateMermaid(testGraphSet(6))

	assert.True(t, strings.HasPrefix(out, "graph LR\n"))
	assert.Contains(t, out, `P[/"physical nodes (9)"/]`)
	assert.Contains(t, out, `Q[/"output nodes (9)"/]`)
	assert.Contains(t, out, `L0["level 0: 3 regions, 2 edges"]`)
	assert.Contains(t, out, `L1["level 1: 2 regions, 1 edges"]`)
	assert.Contains(t, out, "L0 -.-> L1")
	assert.Contains(t, out, "class L0 regions;")
	assert.Contains(t, out, "class L1 regions;")
}

func TestGenerateMermaidEdgeDetail(t *testing.T) {
	out := GenerateMermaid(testGraphSet(6))

	// Small stages are drawn edge by edge.
	assert.Contains(t, out, `P -- "encoder 0->0" --> L0`)
	assert.Contains(t, out, `L0 -- "decoder 1->5" --> Q`)
	assert.NotContains(t, out, "6 edges")
}

func TestGenerateMermaidCollapsesLargeStages(t *testing.T) {
	out := GenerateMermaid(testGraphSet(100))

	assert.Contains(t, out, `P -- "encoder: 100 edges" --> L0`)
	assert.NotContains(t, out, `"encoder 0->0"`)
}
