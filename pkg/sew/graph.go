package sew

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"
	"github.com/samber/lo"
)

// FaceGraph links faces that share an edge. Vertex ids are zero padded
// face indices, so neighbours come back in face order and every walk is
// deterministic.
type FaceGraph struct {
	g     *core.Graph
	n     int
	width int
}

// Step is one face reached by a walk. From is the face it was reached
// through, or -1 for the start.
type Step struct {
	Face int
	From int
}

// NewFaceGraph returns a graph of n unlinked faces.
func NewFaceGraph(n int) (*FaceGraph, error) {
	fg := &FaceGraph{g: core.NewGraph(), n: n, width: len(strconv.Itoa(n))}
	for i := 0; i < n; i++ {
		if err := fg.g.AddVertex(fg.id(i)); err != nil {
			return nil, fmt.Errorf("face graph: %w", err)
		}
	}
	return fg, nil
}

func (fg *FaceGraph) id(i int) string { return fmt.Sprintf("%0*d", fg.width, i) }

func (fg *FaceGraph) index(id string) int {
	i, _ := strconv.Atoi(id)
	return i
}

// Link joins faces i and j. A face is never linked to itself and a pair
// is linked once however many edges it shares.
func (fg *FaceGraph) Link(i, j int) error {
	if i == j {
		return nil
	}
	a, b := fg.id(i), fg.id(j)
	if fg.g.HasEdge(a, b) {
		return nil
	}
	if _, err := fg.g.AddEdge(a, b, 0); err != nil {
		return fmt.Errorf("face graph: link %d-%d: %w", i, j, err)
	}
	return nil
}

// Walk visits the faces reachable from start, breadth first.
func (fg *FaceGraph) Walk(start int) ([]Step, error) {
	res, err := bfs.BFS(fg.g, fg.id(start))
	if err != nil {
		return nil, fmt.Errorf("face graph: walk from %d: %w", start, err)
	}
	return lo.Map(res.Order, func(id string, _ int) Step {
		from := -1
		if p, ok := res.Parent[id]; ok && p != "" {
			from = fg.index(p)
		}
		return Step{Face: fg.index(id), From: from}
	}), nil
}

// Components partitions the faces into connected groups. Each group is in
// face order and groups are ordered by their first face.
func (fg *FaceGraph) Components() ([][]int, error) {
	seen := make([]bool, fg.n)
	var out [][]int
	for i := 0; i < fg.n; i++ {
		if seen[i] {
			continue
		}
		steps, err := fg.Walk(i)
		if err != nil {
			return nil, err
		}
		comp := lo.Map(steps, func(s Step, _ int) int { return s.Face })
		for _, f := range comp {
			seen[f] = true
		}
		sort.Ints(comp)
		out = append(out, comp)
	}
	return out, nil
}
