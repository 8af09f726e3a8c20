// Package voronoi computes 3D Voronoi tessellations incrementally by
// maintaining the dual Delaunay tetrahedralization of the inserted
// sites. Sites are inserted one at a time; after every insertion the
// full diagram around each site can be queried (coordination number,
// atomic volume, cavity radius, Voronoi index histogram).
//
// A Builder is not safe for concurrent use; distinct builders are
// independent and may run in parallel.
//
// References:
//   - Ledoux: "Computing the 3D Voronoi Diagram Robustly: An Easy
//     Explanation" (2007)
package voronoi

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// universeScale spreads the bootstrap tetrahedron far enough out that
// every real insertion lands strictly inside it.
var universeScale = math.Pow(2.0, 30)

// walkOrder holds the six permutations of the three faces to probe when
// entering a tetrahedron during point location, indexed by the face we
// entered through (which never needs re-testing). A permutation is drawn
// at random per step to avoid cycling on degenerate configurations.
var walkOrder = [4][6][3]int{
	{{posB, posC, posD}, {posC, posB, posD}, {posC, posD, posB}, {posB, posD, posC}, {posD, posB, posC}, {posD, posC, posB}},
	{{posA, posC, posD}, {posC, posA, posD}, {posC, posD, posA}, {posA, posD, posC}, {posD, posA, posC}, {posD, posC, posA}},
	{{posB, posA, posD}, {posA, posB, posD}, {posA, posD, posB}, {posB, posD, posA}, {posD, posB, posA}, {posD, posA, posB}},
	{{posB, posC, posA}, {posC, posB, posA}, {posC, posA, posB}, {posB, posA, posC}, {posA, posB, posC}, {posA, posC, posB}},
}

// Builder incrementally maintains the Delaunay tetrahedralization of
// the inserted sites and derives Voronoi statistics from it on demand.
type Builder struct {
	rng  *rand.Rand
	last *Tetrahedron
	// Corners of the bootstrap tetrahedron. Asymmetric on purpose, so
	// flat 2D-ish inputs do not hit its symmetries.
	universe [4]*Vertex
	vertices []*Vertex
	// Epoch advances on every mutation that can change statistics;
	// cached per-vertex and per-tetrahedron data compares against it.
	epoch uint64

	noWarning bool
	warnOut   io.Writer

	// Per axis, exactly one of the relative and absolute thresholds is
	// active; the inactive one is NaN.
	areaThreshold      float64
	areaThresholdAbs   float64
	lengthThreshold    float64
	lengthThresholdAbs float64
	indexLength        int
}

// NewBuilder returns a builder with a time-seeded RNG. Use
// NewBuilderRand when reproducibility matters.
func NewBuilder() *Builder {
	return NewBuilderRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewBuilderRand returns a builder using rng for the randomized point
// location walk. Two builders with identically seeded RNGs and the same
// insertion sequence produce identical tessellations and statistics.
func NewBuilderRand(rng *rand.Rand) *Builder {
	b := &Builder{
		rng:                rng,
		epoch:              1,
		warnOut:            os.Stderr,
		areaThresholdAbs:   math.NaN(),
		lengthThresholdAbs: math.NaN(),
		indexLength:        9,
	}
	s := universeScale
	t := b.newTetrahedron(
		b.newVertex(mgl64.Vec3{-s * 1.1, s * 1.6, -s * 2.3}, nil),
		b.newVertex(mgl64.Vec3{s * 1.5, s * 1.9, s * 1.8}, nil),
		b.newVertex(mgl64.Vec3{s * 2.2, -s * 1.4, -s * 1.7}, nil),
		b.newVertex(mgl64.Vec3{-s * 1.2, -s * 2.1, s * 1.3}, nil),
	)
	b.last = t
	b.universe = [4]*Vertex{t.a, t.b, t.c, t.d}
	return b
}

// AreaThreshold sets the relative area threshold: Voronoi faces with
// area below the fraction r of the cell surface are not counted as
// coordination. Disables the absolute area threshold. Zero disables
// truncation.
func (b *Builder) AreaThreshold(r float64) *Builder {
	old := b.areaThreshold
	b.areaThreshold = math.Max(0.0, r)
	b.areaThresholdAbs = math.NaN()
	if old != b.areaThreshold {
		b.epoch++
	}
	return b
}

// AreaThresholdAbs sets the absolute area threshold and disables the
// relative one.
func (b *Builder) AreaThresholdAbs(a float64) *Builder {
	old := b.areaThresholdAbs
	b.areaThresholdAbs = math.Max(0.0, a)
	b.areaThreshold = math.NaN()
	if old != b.areaThresholdAbs {
		b.epoch++
	}
	return b
}

// LengthThreshold sets the relative edge-length threshold: edges of a
// Voronoi face shorter than the fraction r of the site distance are
// collapsed when counting face sides. Disables the absolute threshold.
// Zero disables truncation.
func (b *Builder) LengthThreshold(r float64) *Builder {
	old := b.lengthThreshold
	b.lengthThreshold = math.Max(0.0, r)
	b.lengthThresholdAbs = math.NaN()
	if old != b.lengthThreshold {
		b.epoch++
	}
	return b
}

// LengthThresholdAbs sets the absolute edge-length threshold and
// disables the relative one.
func (b *Builder) LengthThresholdAbs(a float64) *Builder {
	old := b.lengthThresholdAbs
	b.lengthThresholdAbs = math.Max(0.0, a)
	b.lengthThreshold = math.NaN()
	if old != b.lengthThresholdAbs {
		b.epoch++
	}
	return b
}

// IndexLength sets the number of buckets of the Voronoi index
// histogram; at least 1. Default 9.
func (b *Builder) IndexLength(n int) *Builder {
	if n < 1 {
		n = 1
	}
	b.indexLength = n
	return b
}

// NoWarning suppresses diagnostics about incomplete Voronoi cells and
// out-of-range histogram buckets.
func (b *Builder) NoWarning(suppress bool) *Builder {
	b.noWarning = suppress
	return b
}

// WarningOutput redirects diagnostics to w. Default os.Stderr.
func (b *Builder) WarningOutput(w io.Writer) *Builder {
	b.warnOut = w
	return b
}

func (b *Builder) warnf(format string, args ...interface{}) {
	if b.noWarning || b.warnOut == nil {
		return
	}
	fmt.Fprintf(b.warnOut, format, args...)
}

func (b *Builder) areaValid(area, refArea float64) bool {
	if !math.IsNaN(b.areaThreshold) {
		return b.areaThreshold == 0.0 || area > b.areaThreshold*refArea
	}
	if !math.IsNaN(b.areaThresholdAbs) {
		return b.areaThresholdAbs == 0.0 || area > b.areaThresholdAbs
	}
	panic("voronoi: no active area threshold")
}

func (b *Builder) lengthValid(length, refLength float64) bool {
	if !math.IsNaN(b.lengthThreshold) {
		return b.lengthThreshold == 0.0 || length > b.lengthThreshold*refLength
	}
	if !math.IsNaN(b.lengthThresholdAbs) {
		return b.lengthThresholdAbs == 0.0 || length > b.lengthThresholdAbs
	}
	panic("voronoi: no active length threshold")
}

func (b *Builder) isUniverse(v *Vertex) bool {
	return v == b.universe[0] || v == b.universe[1] || v == b.universe[2] || v == b.universe[3]
}

func (b *Builder) isUniverseTet(t *Tetrahedron) bool {
	return t.containsVertex(b.universe[0]) || t.containsVertex(b.universe[1]) ||
		t.containsVertex(b.universe[2]) || t.containsVertex(b.universe[3])
}

// Insert adds the site (x, y, z) to the tessellation. Chainable.
func (b *Builder) Insert(x, y, z float64) *Builder {
	return b.InsertPoint(mgl64.Vec3{x, y, z})
}

// InsertPoint adds a site to the tessellation: it locates the enclosing
// tetrahedron, splits it four ways around the new site, then flips
// non-regular faces until the Delaunay property holds again. Inserting
// sites roughly in geometric order shortens the location walk.
//
// Inserting a point that coincides exactly with an existing site or a
// universe corner is undefined.
func (b *Builder) InsertPoint(p mgl64.Vec3) *Builder {
	b.epoch++
	b.last = b.locate(p, b.last)
	v := b.newVertex(p, b.last)
	ears := make([]orientedFace, 0, 16)
	b.last = b.last.flip1to4(v, &ears)
	for len(ears) > 0 {
		f := ears[len(ears)-1]
		ears = ears[:len(ears)-1]
		if t := f.tryFlip(&ears); t != nil {
			b.last = t
		}
	}
	b.vertices = append(b.vertices, v)
	return b
}

// locate walks from start to the tetrahedron enclosing p: at each step
// it crosses the first face that has p strictly outside, probing the
// three candidate faces in a random order drawn per step.
func (b *Builder) locate(p mgl64.Vec3, start *Tetrahedron) *Tetrahedron {
	next := posNone
	for face := posA; face <= posD; face++ {
		if start.orientWRT(p, face) < 0 {
			next = face
			break
		}
	}
	current := start
	for next != posNone {
		neighbor := current.neighborAt(next)
		if neighbor == nil {
			panic("voronoi: locate: walked out of the mesh")
		}
		next = posNone
		for _, face := range walkOrder[neighbor.ordinalOf(current)][b.rng.Intn(6)] {
			if neighbor.orientWRT(p, face) < 0 {
				next = face
				break
			}
		}
		current = neighbor
	}
	return current
}

// VertexAt returns the i-th inserted site, in insertion order.
func (b *Builder) VertexAt(i int) *Vertex { return b.vertices[i] }

// NumVertex returns the number of inserted sites.
func (b *Builder) NumVertex() int { return len(b.vertices) }

// AllVertex returns the inserted sites in insertion order.
func (b *Builder) AllVertex() []*Vertex {
	out := make([]*Vertex, len(b.vertices))
	copy(out, b.vertices)
	return out
}

// LastTetrahedron returns the tetrahedron the next point location starts
// from: one of those created by the latest insertion.
func (b *Builder) LastTetrahedron() *Tetrahedron { return b.last }

// AllTetrahedron returns every live tetrahedron of the mesh, discovered
// by DFS over face adjacency from LastTetrahedron.
func (b *Builder) AllTetrahedron() []*Tetrahedron {
	var out []*Tetrahedron
	seen := make(map[*Tetrahedron]struct{})
	stack := []*Tetrahedron{b.last}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[t]; ok {
			continue
		}
		for _, n := range [4]*Tetrahedron{t.nA, t.nB, t.nC, t.nD} {
			if n != nil {
				stack = append(stack, n)
			}
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
