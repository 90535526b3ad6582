package slicer

import (
	gomath "math"

	"github.com/Faultbox/topomap/pkg/math"
)

type cellKey [2]int64

type edge struct {
	a, b int
}

// graph is an undirected segment graph whose nodes are welded endpoints.
// All points share one plane, so welding looks at X and Y only.
type graph struct {
	tol   float64
	nodes []math.Vec3
	cells map[cellKey][]int
	adj   [][]int // node -> edge ids, in insertion order
	edges []edge
	seen  map[edge]bool
}

func newGraph(tol float64) *graph {
	return &graph{
		tol:   tol,
		cells: make(map[cellKey][]int),
		seen:  make(map[edge]bool),
	}
}

func (g *graph) cell(p math.Vec3) cellKey {
	return cellKey{
		int64(gomath.Floor(p.X / g.tol)),
		int64(gomath.Floor(p.Y / g.tol)),
	}
}

// node returns the id of the node within tolerance of p, creating it if
// there is none. Neighbor cells are searched so points straddling a cell
// border still weld.
func (g *graph) node(p math.Vec3) int {
	k := g.cell(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, id := range g.cells[cellKey{k[0] + dx, k[1] + dy}] {
				if g.nodes[id].Distance(p) <= g.tol {
					return id
				}
			}
		}
	}

	id := len(g.nodes)
	g.nodes = append(g.nodes, p)
	g.adj = append(g.adj, nil)
	g.cells[k] = append(g.cells[k], id)
	return id
}

// addSegment adds the segment pq. Zero-length and repeated segments are
// ignored.
func (g *graph) addSegment(p, q math.Vec3) {
	a, b := g.node(p), g.node(q)
	if a == b {
		return
	}
	key := edge{min(a, b), max(a, b)}
	if g.seen[key] {
		return
	}
	g.seen[key] = true

	id := len(g.edges)
	g.edges = append(g.edges, edge{a, b})
	g.adj[a] = append(g.adj[a], id)
	g.adj[b] = append(g.adj[b], id)
}

// stitch walks every edge exactly once. Walks start at odd-degree nodes
// first so open chains are taken whole, then the remaining closed loops
// are walked in node order.
func (g *graph) stitch() [][]math.Vec3 {
	used := make([]bool, len(g.edges))
	var lines [][]math.Vec3

	walkFrom := func(start int) {
		for g.hasUnused(start, used) {
			lines = append(lines, g.walk(start, used))
		}
	}

	for id := range g.nodes {
		if len(g.adj[id])%2 == 1 {
			walkFrom(id)
		}
	}
	for id := range g.nodes {
		walkFrom(id)
	}
	return lines
}

func (g *graph) hasUnused(id int, used []bool) bool {
	for _, e := range g.adj[id] {
		if !used[e] {
			return true
		}
	}
	return false
}

// walk follows unused edges from start until it gets stuck or comes back
// to start. A closed walk repeats its first point at the end.
func (g *graph) walk(start int, used []bool) []math.Vec3 {
	pts := []math.Vec3{g.nodes[start]}
	cur := start
	for {
		next := -1
		for _, e := range g.adj[cur] {
			if used[e] {
				continue
			}
			used[e] = true
			next = g.edges[e].a
			if next == cur {
				next = g.edges[e].b
			}
			break
		}
		if next < 0 {
			return pts
		}
		cur = next
		if cur == start {
			return append(pts, pts[0])
		}
		pts = append(pts, g.nodes[cur])
	}
}
