package voronoi

import (
	"bytes"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/akmonengine/voronoi/geom"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
)

func newTestBuilder(seed int64) *Builder {
	return NewBuilderRand(rand.New(rand.NewSource(seed))).WarningOutput(io.Discard)
}

// checkMesh verifies the structural invariants that must hold after
// every successful insertion: positive orientation, the Delaunay
// property across every internal face, mutual adjacency, valid vertex
// hints and the insertion-order list.
func checkMesh(t *testing.T, b *Builder) {
	t.Helper()

	tets := b.AllTetrahedron()
	if len(tets) == 0 {
		t.Fatal("no tetrahedra reachable")
	}
	for _, tet := range tets {
		if !tet.Valid() {
			t.Fatal("dead tetrahedron reachable from the live mesh")
		}
		if geom.LeftOfPlane(tet.a.pos, tet.b.pos, tet.c.pos, tet.d.pos) <= 0 {
			t.Fatalf("tetrahedron not positively oriented: %v %v %v %v",
				tet.a.pos, tet.b.pos, tet.c.pos, tet.d.pos)
		}
		for face := posA; face <= posD; face++ {
			n := tet.neighborAt(face)
			if n == nil {
				continue
			}
			back := n.ordinalOf(tet)
			if back == posNone || n.neighborAt(back) != tet {
				t.Fatal("face adjacency not mutual")
			}
			opposite := n.vertexAt(back)
			if geom.InSphere(tet.a.pos, tet.b.pos, tet.c.pos, tet.d.pos, opposite.pos) > 0 {
				t.Fatal("Delaunay property violated: opposite vertex inside circumsphere")
			}
		}
	}

	for i, v := range b.vertices {
		if v.adj == nil || !v.adj.Valid() {
			t.Fatalf("vertex %d has an invalid adjacency hint", i)
		}
		if !v.adj.containsVertex(v) {
			t.Fatalf("vertex %d hint tetrahedron does not contain it", i)
		}
		if b.VertexAt(i) != v {
			t.Fatalf("VertexAt(%d) does not preserve insertion order", i)
		}
	}
}

func TestSingleInsertion(t *testing.T) {
	b := newTestBuilder(1)
	b.Insert(0, 0, 0)

	if got := b.NumVertex(); got != 1 {
		t.Fatalf("NumVertex = %d, want 1", got)
	}
	// The 1->4 split of the universe tetrahedron, nothing to flip.
	if got := len(b.AllTetrahedron()); got != 4 {
		t.Errorf("tetrahedron count = %d, want 4", got)
	}

	v := b.VertexAt(0)
	if got := v.NeighborVertex(); len(got) != 0 {
		t.Errorf("neighbors of a lone site = %d, want 0 (all universe)", len(got))
	}
	if got := v.Coordination(); got != 0 {
		t.Errorf("Coordination = %d, want 0", got)
	}
	if got := v.AtomicVolume(); got != 0 {
		t.Errorf("AtomicVolume = %g, want 0", got)
	}
	checkMesh(t, b)
}

func TestRegularTetrahedron(t *testing.T) {
	b := newTestBuilder(2)
	b.Insert(1, 1, 1).Insert(1, -1, -1).Insert(-1, 1, -1).Insert(-1, -1, 1)

	checkMesh(t, b)
	for i := 0; i < 4; i++ {
		v := b.VertexAt(i)
		if got := len(v.NeighborVertex()); got != 3 {
			t.Errorf("site %d: neighbor count = %d, want 3", i, got)
		}
	}
}

func TestRegularTetrahedronWithCenter(t *testing.T) {
	b := newTestBuilder(12)
	b.Insert(1, 1, 1).Insert(1, -1, -1).Insert(-1, 1, -1).Insert(-1, -1, 1)
	b.Insert(0, 0, 0)
	checkMesh(t, b)

	// The circumcenter's cell is caged by the four outer sites: four
	// triangular Voronoi faces.
	center := b.VertexAt(4)
	if got := center.Coordination(); got != 4 {
		t.Fatalf("center coordination = %d, want 4", got)
	}
	if got := center.AtomicVolume(); got <= 0 {
		t.Errorf("center AtomicVolume = %g, want positive", got)
	}
	index := center.Index()
	if index[2] != 4 {
		t.Errorf("Index = %v, want four three-sided faces", index)
	}
}

func TestCubeCorners(t *testing.T) {
	b := newTestBuilder(3)
	for i := 0; i < 8; i++ {
		b.Insert(float64(i&1), float64(i>>1&1), float64(i>>2&1))
	}

	checkMesh(t, b)

	// Neighborhood must be symmetric.
	for i := 0; i < 8; i++ {
		v := b.VertexAt(i)
		neighbors := v.NeighborVertex()
		if len(neighbors) < 3 {
			t.Errorf("site %d: only %d neighbors", i, len(neighbors))
		}
		for _, w := range neighbors {
			found := false
			for _, back := range w.NeighborVertex() {
				if back == v {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("site %d neighbors %v but not vice versa", i, w.Position())
			}
		}
	}
}

// TestOctahedralCage surrounds the origin with its six axis neighbors at
// distance 2. The Voronoi cell of the origin is the cube [-1,1]^3:
// volume 8, surface 24, six four-sided faces.
func TestOctahedralCage(t *testing.T) {
	build := func(seed int64) *Builder {
		b := newTestBuilder(seed)
		b.Insert(0, 0, 0)
		b.Insert(2, 0, 0).Insert(-2, 0, 0)
		b.Insert(0, 2, 0).Insert(0, -2, 0)
		b.Insert(0, 0, 2).Insert(0, 0, -2)
		return b
	}
	b := build(4)
	checkMesh(t, b)

	origin := b.VertexAt(0)
	if got := origin.Coordination(); got != 6 {
		t.Fatalf("Coordination = %d, want 6", got)
	}
	if got := origin.AtomicVolume(); !near(got, 8.0, 1e-12) {
		t.Errorf("AtomicVolume = %g, want 8", got)
	}
	if got := origin.SurfaceArea(); !near(got, 24.0, 1e-12) {
		t.Errorf("SurfaceArea = %g, want 24", got)
	}
	// Every face is a square: four ring tetrahedra each.
	wantIndex := []int{0, 0, 0, 6, 0, 0, 0, 0, 0}
	if diff := cmp.Diff(wantIndex, origin.Index()); diff != "" {
		t.Errorf("Index mismatch (-want +got):\n%s", diff)
	}
	// Cell corners are the cube corners, sqrt(3) away.
	if got := origin.CavityRadius(); !near(got, 1.7320508075688772, 1e-9) {
		t.Errorf("CavityRadius = %g, want sqrt(3)", got)
	}

	t.Run("independent of walk seed", func(t *testing.T) {
		other := build(99).VertexAt(0)
		if got := other.Coordination(); got != 6 {
			t.Errorf("Coordination with different seed = %d, want 6", got)
		}
		if got := other.AtomicVolume(); !near(got, 8.0, 1e-12) {
			t.Errorf("AtomicVolume with different seed = %g, want 8", got)
		}
	})
}

func TestJitteredGrid(t *testing.T) {
	insertGrid := func(b *Builder) {
		points := rand.New(rand.NewSource(123))
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				for k := 0; k < 3; k++ {
					b.Insert(
						float64(i)+points.Float64()*0.2,
						float64(j)+points.Float64()*0.2,
						float64(k)+points.Float64()*0.2,
					)
				}
			}
		}
	}
	b := newTestBuilder(5)
	insertGrid(b)
	checkMesh(t, b)

	// Site 13 sits at the grid center; its cell is complete.
	center := b.VertexAt(13)
	coordination := center.Coordination()
	if coordination < 4 {
		t.Fatalf("center coordination = %d, want at least 4", coordination)
	}
	if got := center.AtomicVolume(); got < 0.2 || got > 5.0 {
		t.Errorf("center AtomicVolume = %g, not plausible for unit spacing", got)
	}
	if got := center.CavityRadius(); got <= 0 {
		t.Errorf("center CavityRadius = %g, want positive", got)
	}
	if got := sum(center.Index()); got != coordination {
		t.Errorf("sum(Index) = %d, want coordination %d", got, coordination)
	}

	t.Run("coordination independent of walk seed", func(t *testing.T) {
		other := newTestBuilder(77)
		insertGrid(other)
		if got := other.VertexAt(13).Coordination(); got != coordination {
			t.Errorf("coordination = %d with different seed, want %d", got, coordination)
		}
		if got := other.VertexAt(13).AtomicVolume(); !near(got, center.AtomicVolume(), 1e-9) {
			t.Errorf("AtomicVolume = %g with different seed, want %g", got, center.AtomicVolume())
		}
	})
}

type siteStats struct {
	Coordination int
	AtomicVolume float64
	CavityRadius float64
	Index        []int
}

func collectStats(b *Builder) []siteStats {
	out := make([]siteStats, b.NumVertex())
	for i := range out {
		v := b.VertexAt(i)
		out[i] = siteStats{
			Coordination: v.Coordination(),
			AtomicVolume: v.AtomicVolume(),
			CavityRadius: v.CavityRadius(),
			Index:        v.Index(),
		}
	}
	return out
}

func TestReproducibility(t *testing.T) {
	points := rand.New(rand.NewSource(55))
	coords := make([]mgl64.Vec3, 50)
	for i := range coords {
		coords[i] = mgl64.Vec3{points.Float64() * 10, points.Float64() * 10, points.Float64() * 10}
	}

	b1 := newTestBuilder(42)
	b2 := newTestBuilder(42)
	for _, p := range coords {
		b1.InsertPoint(p)
		b2.InsertPoint(p)
	}

	if n1, n2 := len(b1.AllTetrahedron()), len(b2.AllTetrahedron()); n1 != n2 {
		t.Fatalf("tetrahedron counts differ: %d vs %d", n1, n2)
	}
	if diff := cmp.Diff(collectStats(b1), collectStats(b2)); diff != "" {
		t.Errorf("statistics differ between identically seeded builders:\n%s", diff)
	}
	checkMesh(t, b1)
}

func TestThresholds(t *testing.T) {
	cage := func() *Builder {
		b := newTestBuilder(6)
		b.Insert(0, 0, 0)
		b.Insert(2, 0, 0).Insert(-2, 0, 0)
		b.Insert(0, 2, 0).Insert(0, -2, 0)
		b.Insert(0, 0, 2).Insert(0, 0, -2)
		return b
	}

	t.Run("relative area threshold", func(t *testing.T) {
		b := cage()
		// Each face holds 1/6 of the surface.
		if got := b.AreaThreshold(0.5).VertexAt(0).Coordination(); got != 0 {
			t.Errorf("Coordination = %d, want 0 with half-surface threshold", got)
		}
		if got := b.AreaThreshold(0.1).VertexAt(0).Coordination(); got != 6 {
			t.Errorf("Coordination = %d, want 6 with 10%% threshold", got)
		}
	})

	t.Run("absolute area threshold", func(t *testing.T) {
		b := cage()
		if got := b.AreaThresholdAbs(3.9).VertexAt(0).Coordination(); got != 6 {
			t.Errorf("Coordination = %d, want 6 above 3.9", got)
		}
		if got := b.AreaThresholdAbs(4.1).VertexAt(0).Coordination(); got != 0 {
			t.Errorf("Coordination = %d, want 0 above 4.1", got)
		}
	})

	t.Run("absolute length threshold collapses face sides", func(t *testing.T) {
		b := cage().LengthThresholdAbs(2.1)
		// All cell edges have length 2; every face collapses to one
		// counted side but coordination is untouched.
		origin := b.VertexAt(0)
		if got := origin.Coordination(); got != 6 {
			t.Fatalf("Coordination = %d, want 6", got)
		}
		index := origin.Index()
		if index[0] != 6 {
			t.Errorf("Index = %v, want all six faces in the first bucket", index)
		}
		if got := sum(index); got != origin.Coordination() {
			t.Errorf("sum(Index) = %d, want %d", got, origin.Coordination())
		}
	})

	t.Run("index length clamps with warning", func(t *testing.T) {
		var warnings bytes.Buffer
		b := cage().WarningOutput(&warnings).NoWarning(false).IndexLength(2)
		index := b.VertexAt(0).Index()
		if diff := cmp.Diff([]int{0, 6}, index); diff != "" {
			t.Errorf("clamped index mismatch (-want +got):\n%s", diff)
		}
		if !strings.Contains(warnings.String(), "out of range") {
			t.Errorf("expected an out-of-range warning, got %q", warnings.String())
		}
	})
}

func TestIncompleteCellWarning(t *testing.T) {
	var warnings bytes.Buffer
	b := NewBuilderRand(rand.New(rand.NewSource(7))).WarningOutput(&warnings)
	b.Insert(0, 0, 0).Insert(1, 0, 0)

	// Both cells touch the universe; the ring walk cannot close.
	if got := b.VertexAt(0).Coordination(); got != 0 {
		t.Errorf("Coordination = %d, want 0 for an incomplete cell", got)
	}
	if !strings.Contains(warnings.String(), "incomplete") {
		t.Errorf("expected an incompleteness warning, got %q", warnings.String())
	}

	warnings.Reset()
	b2 := NewBuilderRand(rand.New(rand.NewSource(7))).WarningOutput(&warnings).NoWarning(true)
	b2.Insert(0, 0, 0).Insert(1, 0, 0)
	b2.VertexAt(0).Coordination()
	if warnings.Len() != 0 {
		t.Errorf("NoWarning(true) still wrote %q", warnings.String())
	}
}

func TestStatisticsRefreshAfterInsert(t *testing.T) {
	b := newTestBuilder(8)
	b.Insert(0, 0, 0)
	b.Insert(2, 0, 0).Insert(-2, 0, 0)
	b.Insert(0, 2, 0).Insert(0, -2, 0)
	b.Insert(0, 0, 2)

	origin := b.VertexAt(0)
	before := len(origin.NeighborVertex())

	b.Insert(0, 0, -2)
	after := len(origin.NeighborVertex())
	if after != before+1 {
		t.Errorf("neighbor count after closing the cage = %d, want %d", after, before+1)
	}
	if got := origin.Coordination(); got != 6 {
		t.Errorf("Coordination after refresh = %d, want 6", got)
	}
}

func TestAccessors(t *testing.T) {
	b := newTestBuilder(9)
	b.Insert(1.5, -2.5, 3.25)
	v := b.VertexAt(0)

	if v.X() != 1.5 || v.Y() != -2.5 || v.Z() != 3.25 {
		t.Errorf("coordinates = (%g, %g, %g)", v.X(), v.Y(), v.Z())
	}
	if got := v.Position(); got != (mgl64.Vec3{1.5, -2.5, 3.25}) {
		t.Errorf("Position = %v", got)
	}
	if got := len(b.AllVertex()); got != 1 {
		t.Errorf("AllVertex length = %d, want 1", got)
	}
	if b.LastTetrahedron() == nil || !b.LastTetrahedron().Valid() {
		t.Error("LastTetrahedron must be live after insertion")
	}
}

func TestTetrahedronAccessors(t *testing.T) {
	b := newTestBuilder(10)
	b.Insert(0, 0, 0)

	for _, tet := range b.AllTetrahedron() {
		// Every tetrahedron touches the universe here.
		if _, ok := tet.CenterSphere(); ok {
			t.Error("universe tetrahedron reported a meaningful circumcenter")
		}
		if got := len(tet.NeighborVertex()); got != 1 {
			t.Errorf("NeighborVertex length = %d, want 1 (the inserted site)", got)
		}
		if got := len(tet.NeighborTetrahedron()); got != 3 {
			t.Errorf("NeighborTetrahedron length = %d, want 3", got)
		}
	}

	b2 := newTestBuilder(11)
	b2.Insert(0, 0, 0)
	b2.Insert(2, 0, 0).Insert(-2, 0, 0)
	b2.Insert(0, 2, 0).Insert(0, -2, 0)
	b2.Insert(0, 0, 2).Insert(0, 0, -2)
	interior := 0
	for _, tet := range b2.AllTetrahedron() {
		if c, ok := tet.CenterSphere(); ok {
			interior++
			// Circumcenter equidistant from all four corners.
			r := c.Sub(tet.a.pos).Len()
			for _, v := range []*Vertex{tet.b, tet.c, tet.d} {
				if !near(c.Sub(v.pos).Len(), r, 1e-9*(1+r)) {
					t.Errorf("circumcenter %v not equidistant", c)
				}
			}
		}
	}
	if interior != 8 {
		t.Errorf("interior tetrahedron count = %d, want the 8 octants", interior)
	}
}

func near(got, want, tol float64) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff <= tol
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}
