package voronoi

import (
	"github.com/akmonengine/voronoi/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// statOrder lists, for each ordinal the center vertex occupies in an
// incident tetrahedron, the other three ordinals in traversal order.
// The same order is used for collecting neighbor sites and for pushing
// face neighbors, which keeps the discovery order deterministic.
var statOrder = [4][3]int{
	{posB, posC, posD},
	{posA, posC, posD},
	{posB, posA, posD},
	{posB, posC, posA},
}

// neighborFace carries the Voronoi face shared with one neighbor site:
// the number of ring tetrahedra after short-edge truncation, the face
// area and the site distance. ok is false when the ring never produced a
// face (the cell is incomplete toward that neighbor).
type neighborFace struct {
	vertex *Vertex
	tetNum int
	area   float64
	dis    float64
	ok     bool
}

// Vertex is an inserted site of the tessellation. It stores its position
// and a hint to one incident tetrahedron from which all traversals
// start; the hint is refreshed whenever a flip invalidates it.
//
// The Voronoi statistics of the site are computed on demand and cached
// until the next insertion or threshold change.
type Vertex struct {
	builder *Builder
	pos     mgl64.Vec3
	adj     *Tetrahedron

	epoch       uint64
	neighbors   []neighborFace
	nbrIndex    map[*Vertex]int
	neighborTet []*Tetrahedron
	tetSet      map[*Tetrahedron]struct{}
	surfaceArea float64
}

func (b *Builder) newVertex(pos mgl64.Vec3, adj *Tetrahedron) *Vertex {
	return &Vertex{builder: b, pos: pos, adj: adj, epoch: ^uint64(0)}
}

// orient returns 1 when v is left of the oriented plane (a, b, c), -1
// when right, 0 when exactly on it.
func (v *Vertex) orient(a, b, c *Vertex) int {
	return orientation(v.pos, a.pos, b.pos, c.pos)
}

func (v *Vertex) freshenAdjacent(t *Tetrahedron) {
	if !v.adj.Valid() {
		v.adj = t
	}
}

// Position returns the coordinates of the site.
func (v *Vertex) Position() mgl64.Vec3 { return v.pos }

func (v *Vertex) X() float64 { return v.pos[0] }
func (v *Vertex) Y() float64 { return v.pos[1] }
func (v *Vertex) Z() float64 { return v.pos[2] }

const incompleteWarning = "WARNING: Voronoi cell of this vertex is incomplete, voronoi parameters may be wrong\n"

// ringCenter resolves the circumcenter contributed by a ring
// tetrahedron. The ring is broken when there is no tetrahedron, when it
// touches the universe, or when it was not discovered as incident to v.
func (v *Vertex) ringCenter(t *Tetrahedron) (mgl64.Vec3, bool) {
	if t == nil || v.builder.isUniverseTet(t) {
		return mgl64.Vec3{}, false
	}
	if _, ok := v.tetSet[t]; !ok {
		return mgl64.Vec3{}, false
	}
	return t.centerSphereRaw(), true
}

// updateStat recomputes the neighbor sets and per-face Voronoi data if
// the builder epoch advanced (an insertion or a threshold change) since
// the last computation.
//
// It first walks every tetrahedron incident to v (DFS over face
// neighbors from the adjacency hint), collecting neighbor sites and the
// incident set. Then, for each neighbor site w, it walks the ring of
// tetrahedra around the edge (v, w); the circumcenters of the ring are
// the vertices of the Voronoi face between v and w, accumulated as a
// triangle fan. Edges of the face shorter than the length threshold are
// collapsed when counting face sides.
func (v *Vertex) updateStat() {
	b := v.builder
	if v.epoch == b.epoch {
		return
	}
	v.epoch = b.epoch
	v.neighbors = v.neighbors[:0]
	v.nbrIndex = make(map[*Vertex]int)
	v.neighborTet = v.neighborTet[:0]
	v.tetSet = make(map[*Tetrahedron]struct{})
	v.surfaceArea = 0.0

	stack := []*Tetrahedron{v.adj}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := v.tetSet[t]; seen {
			continue
		}
		ord := t.ordinalOfVertex(v)
		if ord == posNone {
			panic("voronoi: updateStat: tetrahedron does not contain its center vertex")
		}
		// Universe tetrahedra stay in the incident set: they still hold
		// real sites on their near faces. Universe corners never become
		// neighbors.
		for _, o := range statOrder[ord] {
			w := t.vertexAt(o)
			if !b.isUniverse(w) {
				if _, ok := v.nbrIndex[w]; !ok {
					v.nbrIndex[w] = len(v.neighbors)
					v.neighbors = append(v.neighbors, neighborFace{vertex: w})
				}
			}
			if n := t.neighborAt(o); n != nil {
				if _, seen := v.tetSet[n]; !seen {
					stack = append(stack, n)
				}
			}
		}
		v.tetSet[t] = struct{}{}
		v.neighborTet = append(v.neighborTet, t)
	}

	for i := range v.neighbors {
		w := v.neighbors[i].vertex
		dis := v.pos.Sub(w.pos).Len()

		// Seed the ring with the first interior incident tetrahedron
		// containing w.
		var tet0 *Tetrahedron
		var pa mgl64.Vec3
		for _, t := range v.neighborTet {
			if !b.isUniverseTet(t) && t.containsVertex(w) {
				tet0 = t
				pa = t.centerSphereRaw()
				break
			}
		}
		if tet0 == nil {
			b.warnf(incompleteWarning)
			continue
		}

		tetNum := 1
		area := 0.0
		tet2 := tet0.neighborAroundEdge(v, w, nil)
		pb, ok := v.ringCenter(tet2)
		if !ok {
			b.warnf(incompleteWarning)
			continue
		}
		if b.lengthValid(pa.Sub(pb).Len(), dis) {
			tetNum++
		}
		tet1 := tet0
		complete := true
		for {
			tet3 := tet2.neighborAroundEdge(v, w, tet1)
			pc, ok := v.ringCenter(tet3)
			if !ok {
				b.warnf(incompleteWarning)
				complete = false
				break
			}
			if tet3 == tet0 {
				break
			}
			if b.lengthValid(pb.Sub(pc).Len(), dis) {
				tetNum++
			}
			area += geom.Area(pa, pb, pc)
			pb = pc
			tet1 = tet2
			tet2 = tet3
		}
		if !complete {
			continue
		}
		// The face area enters the surface and volume untruncated so the
		// volumes stay consistent; thresholds apply when counting.
		v.surfaceArea += area
		v.neighbors[i] = neighborFace{vertex: w, tetNum: tetNum, area: area, dis: dis, ok: true}
	}
}

// Coordination returns the number of Voronoi faces of the site, after
// discarding faces below the area threshold.
func (v *Vertex) Coordination() int {
	v.updateStat()
	coordination := 0
	for _, f := range v.neighbors {
		if f.ok && v.builder.areaValid(f.area, v.surfaceArea) {
			coordination++
		}
	}
	return coordination
}

// AtomicVolume returns the volume of the Voronoi cell of the site,
// summed as pyramids from the site to each face.
func (v *Vertex) AtomicVolume() float64 {
	v.updateStat()
	volume := 0.0
	for _, f := range v.neighbors {
		if f.ok {
			volume += f.area * f.dis / 6.0
		}
	}
	return volume
}

// CavityRadius returns the largest distance from the site to a
// circumcenter of an incident tetrahedron.
func (v *Vertex) CavityRadius() float64 {
	v.updateStat()
	radius := 0.0
	for _, t := range v.neighborTet {
		if d := v.pos.Sub(t.centerSphereRaw()).Len(); d > radius {
			radius = d
		}
	}
	return radius
}

// Index returns the Voronoi index histogram of the site: bucket i counts
// faces with i+1 sides. Faces with more sides than the histogram length
// are clamped into the last bucket with a warning.
func (v *Vertex) Index() []int {
	v.updateStat()
	b := v.builder
	index := make([]int, b.indexLength)
	for _, f := range v.neighbors {
		if !f.ok || !b.areaValid(f.area, v.surfaceArea) {
			continue
		}
		n := f.tetNum
		if n > b.indexLength {
			b.warnf("WARNING: Voronoi index out of range: %d\n", n)
			n = b.indexLength
		}
		index[n-1]++
	}
	return index
}

// SurfaceArea returns the total area of the Voronoi faces of the site.
func (v *Vertex) SurfaceArea() float64 {
	v.updateStat()
	return v.surfaceArea
}

// NeighborVertex returns the neighbor sites of v in discovery order.
// Universe corners are never reported.
func (v *Vertex) NeighborVertex() []*Vertex {
	v.updateStat()
	out := make([]*Vertex, len(v.neighbors))
	for i, f := range v.neighbors {
		out[i] = f.vertex
	}
	return out
}

// NeighborTetrahedron returns every tetrahedron incident to v in
// discovery order, including those touching the universe.
func (v *Vertex) NeighborTetrahedron() []*Tetrahedron {
	v.updateStat()
	return v.neighborTet
}
