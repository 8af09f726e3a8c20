package voronoi

import (
	"github.com/akmonengine/voronoi/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Vertex ordinals of a tetrahedron. Each ordinal also names the face
// opposite that vertex, so the neighbor at ordinal X shares the face
// that does not contain vertex X.
const (
	posA = iota
	posB
	posC
	posD
	posNone = -1
)

// ringTable lists, for each face ordinal, the three vertices spanning
// that face in CCW order as seen from the incident side. The same triple
// ordering orients the face plane for point-location walks.
var ringTable = [4][3]int{
	{posC, posB, posD},
	{posD, posA, posC},
	{posA, posD, posB},
	{posB, posC, posA},
}

// edgeFlanks lists, for each ordered vertex-ordinal pair forming an
// edge, the two face ordinals flanking that edge, in the preference
// order the ring walk probes them. Entries on the diagonal are unused.
var edgeFlanks = [4][4][2]int{
	posA: {posB: {posC, posD}, posC: {posB, posD}, posD: {posB, posC}},
	posB: {posA: {posC, posD}, posC: {posA, posD}, posD: {posA, posC}},
	posC: {posB: {posA, posD}, posA: {posB, posD}, posD: {posB, posA}},
	posD: {posB: {posC, posA}, posC: {posB, posA}, posA: {posB, posC}},
}

// Tetrahedron is a cell of the mesh: four vertices in CCW order (so the
// orientation predicate on A, B, C, D is positive) and up to four
// face neighbors. Deleted tetrahedra keep their vertices but drop their
// neighbors and report Valid() == false; they are retained only until no
// live reference points at them.
type Tetrahedron struct {
	builder    *Builder
	a, b, c, d *Vertex
	// Face neighbors, nil when the face is on the hull of the mesh.
	nA, nB, nC, nD *Tetrahedron
	dead           bool

	// Lazily computed, guarded by the builder epoch.
	epoch          uint64
	neighborVertex []*Vertex
	neighborTet    []*Tetrahedron

	center    mgl64.Vec3
	hasCenter bool
}

func (b *Builder) newTetrahedron(va, vb, vc, vd *Vertex) *Tetrahedron {
	t := &Tetrahedron{builder: b, a: va, b: vb, c: vc, d: vd, epoch: ^uint64(0)}
	va.adj = t
	vb.adj = t
	vc.adj = t
	vd.adj = t
	return t
}

// Valid reports whether the tetrahedron is still part of the mesh.
func (t *Tetrahedron) Valid() bool { return !t.dead }

func (t *Tetrahedron) containsVertex(v *Vertex) bool {
	return t.a == v || t.b == v || t.c == v || t.d == v
}

func (t *Tetrahedron) vertexAt(face int) *Vertex {
	switch face {
	case posA:
		return t.a
	case posB:
		return t.b
	case posC:
		return t.c
	case posD:
		return t.d
	}
	panic("voronoi: vertexAt: bad ordinal")
}

func (t *Tetrahedron) neighborAt(face int) *Tetrahedron {
	switch face {
	case posA:
		return t.nA
	case posB:
		return t.nB
	case posC:
		return t.nC
	case posD:
		return t.nD
	}
	panic("voronoi: neighborAt: bad ordinal")
}

func (t *Tetrahedron) setNeighborAt(face int, n *Tetrahedron) {
	switch face {
	case posA:
		t.nA = n
	case posB:
		t.nB = n
	case posC:
		t.nC = n
	case posD:
		t.nD = n
	default:
		panic("voronoi: setNeighborAt: bad ordinal")
	}
}

func (t *Tetrahedron) neighborOfVertex(v *Vertex) *Tetrahedron {
	return t.neighborAt(t.ordinalOfVertex(v))
}

// ordinalOfVertex returns the position of v in t, or posNone.
func (t *Tetrahedron) ordinalOfVertex(v *Vertex) int {
	switch {
	case v == nil:
		return posNone
	case t.a == v:
		return posA
	case t.b == v:
		return posB
	case t.c == v:
		return posC
	case t.d == v:
		return posD
	}
	return posNone
}

// ordinalOf returns the face ordinal at which n is t's neighbor, or
// posNone.
func (t *Tetrahedron) ordinalOf(n *Tetrahedron) int {
	switch {
	case n == nil:
		return posNone
	case t.nA == n:
		return posA
	case t.nB == n:
		return posB
	case t.nC == n:
		return posC
	case t.nD == n:
		return posD
	}
	return posNone
}

// neighborAroundEdge returns the neighbor sharing the edge (v1, v2) that
// is not from, walking the ring of tetrahedra around the edge. A nil
// from accepts either direction. Both vertices must belong to t.
func (t *Tetrahedron) neighborAroundEdge(v1, v2 *Vertex, from *Tetrahedron) *Tetrahedron {
	i1 := t.ordinalOfVertex(v1)
	i2 := t.ordinalOfVertex(v2)
	if i1 == posNone || i2 == posNone || i1 == i2 {
		panic("voronoi: neighborAroundEdge: vertices not an edge of this tetrahedron")
	}
	flanks := edgeFlanks[i1][i2]
	if n := t.neighborAt(flanks[0]); n != from {
		return n
	}
	return t.neighborAt(flanks[1])
}

// orientWRT orients p against the given face of t: positive when p lies
// on the inner side of that face (the side of the opposite vertex),
// negative when it lies outside.
func (t *Tetrahedron) orientWRT(p mgl64.Vec3, face int) int {
	ring := ringTable[face]
	return orientation(p, t.vertexAt(ring[0]).pos, t.vertexAt(ring[1]).pos, t.vertexAt(ring[2]).pos)
}

func (t *Tetrahedron) inSphere(p mgl64.Vec3) int {
	return sign(geom.InSphere(t.a.pos, t.b.pos, t.c.pos, t.d.pos, p))
}

func (t *Tetrahedron) face(face int) orientedFace {
	return newOrientedFace(t, face)
}

func (t *Tetrahedron) faceOpposite(v *Vertex) orientedFace {
	return t.face(t.ordinalOfVertex(v))
}

// flip1to4 splits t into four tetrahedra sharing the new vertex v, wires
// them pairwise, patches t's external faces onto them, and deletes t.
// The four faces opposite v that have a neighbor are pushed onto ears
// for regularity checks. Returns one of the new tetrahedra as the next
// walk hint.
func (t *Tetrahedron) flip1to4(v *Vertex, ears *[]orientedFace) *Tetrahedron {
	b := t.builder
	t0 := b.newTetrahedron(t.a, t.b, t.c, v)
	t1 := b.newTetrahedron(t.a, t.d, t.b, v)
	t2 := b.newTetrahedron(t.a, t.c, t.d, v)
	t3 := b.newTetrahedron(t.b, t.d, t.c, v)

	t0.nA = t3
	t0.nB = t2
	t0.nC = t1

	t1.nA = t3
	t1.nB = t0
	t1.nC = t2

	t2.nA = t3
	t2.nB = t1
	t2.nC = t0

	t3.nA = t2
	t3.nB = t0
	t3.nC = t1

	t.patch(posD, t0, posD)
	t.patch(posC, t1, posD)
	t.patch(posB, t2, posD)
	t.patch(posA, t3, posD)

	t.delete()

	for _, nt := range [4]*Tetrahedron{t0, t1, t2, t3} {
		if f := nt.face(posD); f.hasAdjacent() {
			*ears = append(*ears, f)
		}
	}
	return t1
}

func (t *Tetrahedron) delete() {
	t.nA, t.nB, t.nC, t.nD = nil, nil, nil, nil
	t.dead = true
}

// patch transfers the adjacency across t's face at oldFace onto the
// replacement tetrahedron n at newFace, fixing both directions.
func (t *Tetrahedron) patch(oldFace int, n *Tetrahedron, newFace int) {
	if neighbor := t.neighborAt(oldFace); neighbor != nil {
		neighbor.setNeighborAt(neighbor.ordinalOf(t), n)
		n.setNeighborAt(newFace, neighbor)
	}
}

func (t *Tetrahedron) patchVertex(old *Vertex, n *Tetrahedron, newFace int) {
	t.patch(t.ordinalOfVertex(old), n, newFace)
}

// removeAnyDegenerateTetrahedronPair checks whether t shares two
// distinct faces with the same neighbor. Such a pair encloses no volume
// and is cut out of the mesh.
func (t *Tetrahedron) removeAnyDegenerateTetrahedronPair() {
	if t.nA != nil {
		if t.nA == t.nB {
			t.removeDegeneratePair(posA, posB, posC, posD)
			return
		}
		if t.nA == t.nC {
			t.removeDegeneratePair(posA, posC, posB, posD)
			return
		}
		if t.nA == t.nD {
			t.removeDegeneratePair(posA, posD, posB, posC)
			return
		}
	}
	if t.nB != nil {
		if t.nB == t.nC {
			t.removeDegeneratePair(posB, posC, posA, posD)
			return
		}
		if t.nB == t.nD {
			t.removeDegeneratePair(posB, posD, posA, posC)
			return
		}
	}
	if t.nC != nil {
		if t.nC == t.nD {
			t.removeDegeneratePair(posC, posD, posA, posB)
			return
		}
	}
}

// removeDegeneratePair deletes t and its doubled neighbor, repatching
// the far neighbors of the pair around the surviving edge and refreshing
// the adjacency hints of the four corner vertices.
func (t *Tetrahedron) removeDegeneratePair(ve1, ve2, vf1, vf2 int) {
	nE := t.neighborAt(ve1)
	nF1 := nE.neighborOfVertex(t.vertexAt(vf1))
	nF2 := nE.neighborOfVertex(t.vertexAt(vf2))

	t.patch(vf1, nF1, nF1.ordinalOf(nE))
	t.patch(vf2, nF2, nF2.ordinalOf(nE))

	e1 := t.vertexAt(ve1)
	e2 := t.vertexAt(ve2)
	f1 := t.vertexAt(vf1)
	f2 := t.vertexAt(vf2)

	t.delete()
	nE.delete()

	e1.freshenAdjacent(nF1)
	f2.freshenAdjacent(nF1)
	e2.freshenAdjacent(nF2)
	f1.freshenAdjacent(nF2)
}

// centerSphereRaw returns the cached circumcenter, computing it on first
// use. Universe tetrahedra get a center too (the ring walk never uses
// it), with a warning since the far-away corners make it meaningless.
func (t *Tetrahedron) centerSphereRaw() mgl64.Vec3 {
	if !t.hasCenter {
		if t.builder.isUniverseTet(t) {
			t.builder.warnf("WARNING: this tetrahedron touches the universe, centerSphere may be wrong\n")
		}
		t.center = geom.CenterSphere(t.a.pos, t.b.pos, t.c.pos, t.d.pos)
		t.hasCenter = true
	}
	return t.center
}

// CenterSphere returns the circumcenter of the tetrahedron. The second
// result is false for tetrahedra touching the universe corners, whose
// circumcenter is not meaningful.
func (t *Tetrahedron) CenterSphere() (mgl64.Vec3, bool) {
	if t.builder.isUniverseTet(t) {
		return mgl64.Vec3{}, false
	}
	return t.centerSphereRaw(), true
}

func (t *Tetrahedron) updateStat() {
	if t.epoch == t.builder.epoch {
		return
	}
	t.epoch = t.builder.epoch
	t.neighborVertex = t.neighborVertex[:0]
	t.neighborTet = t.neighborTet[:0]
	for _, v := range [4]*Vertex{t.a, t.b, t.c, t.d} {
		if !t.builder.isUniverse(v) {
			t.neighborVertex = append(t.neighborVertex, v)
		}
	}
	for _, n := range [4]*Tetrahedron{t.nA, t.nB, t.nC, t.nD} {
		if n != nil {
			t.neighborTet = append(t.neighborTet, n)
		}
	}
}

// NeighborVertex returns the corners of the tetrahedron, excluding
// universe corners.
func (t *Tetrahedron) NeighborVertex() []*Vertex {
	t.updateStat()
	return t.neighborVertex
}

// NeighborTetrahedron returns the face neighbors of the tetrahedron.
func (t *Tetrahedron) NeighborTetrahedron() []*Tetrahedron {
	t.updateStat()
	return t.neighborTet
}

func orientation(p, a, b, c mgl64.Vec3) int {
	return sign(geom.LeftOfPlane(a, b, c, p))
}

func sign(v float64) int {
	switch {
	case v > 0.0:
		return 1
	case v < 0.0:
		return -1
	}
	return 0
}
