package voronoi

// reflexTable lists, for each face ordinal and ring position, the three
// vertex ordinals whose oriented plane decides whether the adjacent
// vertex makes that ring edge reflex.
var reflexTable = [4][3][3]int{
	{{posA, posB, posD}, {posC, posA, posD}, {posC, posB, posA}},
	{{posB, posA, posC}, {posD, posB, posC}, {posD, posA, posB}},
	{{posC, posD, posB}, {posA, posC, posB}, {posA, posD, posC}},
	{{posD, posC, posA}, {posB, posD, posA}, {posB, posC, posD}},
}

// orientedFace is a transient view of one face of a tetrahedron: the
// incident tetrahedron plus the ordinal of the vertex opposite the face.
// The mirror ordinal in the adjacent tetrahedron is resolved at
// construction. Passed by value; never heap-allocated.
type orientedFace struct {
	incident *Tetrahedron
	face     int
	adjFace  int
}

func newOrientedFace(t *Tetrahedron, face int) orientedFace {
	f := orientedFace{incident: t, face: face, adjFace: posNone}
	if adj := t.neighborAt(face); adj != nil {
		f.adjFace = adj.ordinalOf(t)
	}
	return f
}

func (f orientedFace) hasAdjacent() bool { return f.adjFace != posNone }

func (f orientedFace) adjacent() *Tetrahedron { return f.incident.neighborAt(f.face) }

func (f orientedFace) incidentVertex() *Vertex { return f.incident.vertexAt(f.face) }

func (f orientedFace) adjacentVertex() *Vertex {
	if f.adjFace == posNone {
		return nil
	}
	return f.adjacent().vertexAt(f.adjFace)
}

func (f orientedFace) valid() bool {
	if !f.incident.Valid() {
		return false
	}
	adj := f.adjacent()
	return adj != nil && adj.Valid()
}

// notRegular reports whether the adjacent vertex lies strictly inside
// the circumsphere of the incident tetrahedron, i.e. the face violates
// the Delaunay property.
func (f orientedFace) notRegular() bool {
	if !f.hasAdjacent() {
		return false
	}
	return f.incident.inSphere(f.adjacentVertex().pos) > 0
}

// ringVertex returns the i-th vertex (i in 0..2) of the face ring, in
// the CCW order seen from the incident side.
func (f orientedFace) ringVertex(i int) *Vertex {
	return f.incident.vertexAt(ringTable[f.face][i])
}

// isReflex reports whether the adjacent vertex is on the visible side of
// the plane through the reflex-test triple for ring position i.
func (f orientedFace) isReflex(i int) bool {
	adjVertex := f.adjacentVertex()
	if adjVertex == nil {
		return false
	}
	triple := reflexTable[f.face][i]
	return adjVertex.orient(
		f.incident.vertexAt(triple[0]),
		f.incident.vertexAt(triple[1]),
		f.incident.vertexAt(triple[2]),
	) == 1
}

// tryFlip restores the Delaunay property across this face if a bistellar
// flip applies: 2->3 when no ring edge is reflex, 3->2 when exactly one
// is and the three tetrahedra around it close up. New faces that still
// need checking are pushed onto ears. Returns one of the new tetrahedra,
// or nil when no flip was performed.
func (f orientedFace) tryFlip(ears *[]orientedFace) *Tetrahedron {
	if !f.valid() {
		return nil
	}
	incVertex := f.incidentVertex()

	// Count how many faces of the tetrahedron formed by the inserted
	// point and this face would be visible from the adjacent vertex.
	// Two or more means no flip can help yet.
	reflexEdge := 0
	reflexCount := 0
	for i := 0; reflexCount < 2 && i < 3; i++ {
		if f.isReflex(i) {
			reflexEdge = i
			reflexCount++
		}
	}

	var out *Tetrahedron
	if reflexCount == 0 && f.notRegular() {
		for _, t := range f.flip2to3() {
			if nf := t.faceOpposite(incVertex); nf.hasAdjacent() {
				*ears = append(*ears, nf)
			}
			out = t
		}
	} else if reflexCount == 1 && f.notRegular() {
		opposing := f.ringVertex(reflexEdge)
		t1 := f.incident.neighborOfVertex(opposing)
		t2 := f.adjacent().neighborOfVertex(opposing)
		if t1 != nil && t1 == t2 {
			for _, t := range f.flip3to2(reflexEdge) {
				if nf := t.faceOpposite(incVertex); nf.hasAdjacent() {
					*ears = append(*ears, nf)
				}
				out = t
			}
		}
	}
	// Two or more reflex edges, a regular face, or no shared third
	// tetrahedron: no action taken.
	return out
}

// flip2to3 replaces the two tetrahedra sharing this face with three
// tetrahedra around the edge (incidentVertex, adjacentVertex). Any new
// tetrahedron that turned out degenerate is removed again, so fewer than
// three may survive.
func (f orientedFace) flip2to3() []*Tetrahedron {
	b := f.incident.builder
	opposing := f.adjacentVertex()
	incVertex := f.incidentVertex()
	t0 := b.newTetrahedron(f.ringVertex(0), incVertex, f.ringVertex(1), opposing)
	t1 := b.newTetrahedron(f.ringVertex(1), incVertex, f.ringVertex(2), opposing)
	t2 := b.newTetrahedron(f.ringVertex(0), f.ringVertex(2), incVertex, opposing)

	t0.nA = t1
	t0.nC = t2

	t1.nA = t2
	t1.nC = t0

	t2.nA = t1
	t2.nB = t0

	f.incident.patchVertex(f.ringVertex(2), t0, posD)
	f.incident.patchVertex(f.ringVertex(0), t1, posD)
	f.incident.patchVertex(f.ringVertex(1), t2, posD)

	adjacent := f.adjacent()
	adjacent.patchVertex(f.ringVertex(0), t1, posB)
	adjacent.patchVertex(f.ringVertex(1), t2, posC)
	adjacent.patchVertex(f.ringVertex(2), t0, posB)

	f.incident.delete()
	adjacent.delete()

	t0.removeAnyDegenerateTetrahedronPair()
	t1.removeAnyDegenerateTetrahedronPair()
	t2.removeAnyDegenerateTetrahedronPair()

	out := make([]*Tetrahedron, 0, 3)
	for _, t := range [3]*Tetrahedron{t0, t1, t2} {
		if t.Valid() {
			out = append(out, t)
		}
	}
	return out
}

// flip3to2 replaces the three tetrahedra around the reflex edge with two
// tetrahedra along the axis (ring[reflexEdge], incidentVertex,
// adjacentVertex). The ordering of the two remaining ring vertices is
// chosen so both new tetrahedra are positively oriented.
func (f orientedFace) flip3to2(reflexEdge int) []*Tetrahedron {
	b := f.incident.builder
	t2old := f.incident.neighborOfVertex(f.ringVertex(reflexEdge))

	var top0, top1 *Vertex
	switch reflexEdge {
	case 0:
		top0, top1 = f.ringVertex(1), f.ringVertex(2)
	case 1:
		top0, top1 = f.ringVertex(0), f.ringVertex(2)
	case 2:
		top0, top1 = f.ringVertex(0), f.ringVertex(1)
	default:
		panic("voronoi: flip3to2: bad reflex edge")
	}

	x := f.ringVertex(reflexEdge)
	y := f.incidentVertex()
	z := f.adjacentVertex()

	var t0, t1 *Tetrahedron
	if top0.orient(x, y, z) > 0 {
		t0 = b.newTetrahedron(x, y, z, top0)
		t1 = b.newTetrahedron(y, x, z, top1)
	} else {
		t0 = b.newTetrahedron(x, y, z, top1)
		t1 = b.newTetrahedron(y, x, z, top0)
	}

	t0.nD = t1
	t1.nD = t0

	f.incident.patchVertex(t0.d, t1, t1.ordinalOfVertex(f.adjacentVertex()))
	f.incident.patchVertex(t1.d, t0, t0.ordinalOfVertex(f.adjacentVertex()))

	adjacent := f.adjacent()
	adjacent.patchVertex(t0.d, t1, t1.ordinalOfVertex(f.incidentVertex()))
	adjacent.patchVertex(t1.d, t0, t0.ordinalOfVertex(f.incidentVertex()))

	t2old.patchVertex(t0.d, t1, t1.ordinalOfVertex(x))
	t2old.patchVertex(t1.d, t0, t0.ordinalOfVertex(x))

	f.incident.delete()
	adjacent.delete()
	t2old.delete()

	return []*Tetrahedron{t0, t1}
}
