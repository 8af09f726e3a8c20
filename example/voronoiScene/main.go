// Command voronoiScene tessellates a jittered grid of sites, prints the
// Voronoi statistics of the innermost site, cross-checks its cell volume
// against the convex hull of the cell vertices, and renders the Delaunay
// neighborhood graph of the mid layer to an SVG file.
package main

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"

	svg "github.com/ajstarks/svgo"
	"github.com/akmonengine/voronoi"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	quickhull "github.com/markus-wa/quickhull-go/v2"
)

const (
	gridSize = 5
	spacing  = 1.0
	jitter   = 0.2

	filename = "voronoi.svg"
	width    = 800
	height   = 800

	siteStyle = "fill:rgb(200,30,30)"
	edgeStyle = "stroke:rgb(170,170,170);stroke-width:1"
)

func buildScene() *voronoi.Builder {
	rng := rand.New(rand.NewSource(1))
	b := voronoi.NewBuilderRand(rand.New(rand.NewSource(2)))

	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			for k := 0; k < gridSize; k++ {
				b.Insert(
					float64(i)*spacing+rng.Float64()*jitter,
					float64(j)*spacing+rng.Float64()*jitter,
					float64(k)*spacing+rng.Float64()*jitter,
				)
			}
		}
	}
	return b
}

// centerSite returns the inserted site closest to the grid center.
func centerSite(b *voronoi.Builder) *voronoi.Vertex {
	center := mgl64.Vec3{1, 1, 1}.Mul(float64(gridSize-1) * spacing / 2)
	best := b.VertexAt(0)
	bestDist := math.Inf(1)
	for _, v := range b.AllVertex() {
		if d := v.Position().Sub(center).Len(); d < bestDist {
			best = v
			bestDist = d
		}
	}
	return best
}

// hullVolume computes the volume of the convex hull of the Voronoi-cell
// vertices of v (the circumcenters of its incident tetrahedra).
func hullVolume(v *voronoi.Vertex) float64 {
	var points []r3.Vector
	for _, t := range v.NeighborTetrahedron() {
		if c, ok := t.CenterSphere(); ok {
			points = append(points, r3.Vector{X: c.X(), Y: c.Y(), Z: c.Z()})
		}
	}

	qh := new(quickhull.QuickHull)
	hull := qh.ConvexHull(points, true, false, 1e-10)

	// Sum signed tetrahedron volumes of the triangle fan from the origin.
	volume := 0.0
	for i := 0; i+2 < len(hull.Indices); i += 3 {
		p0 := hull.Vertices[hull.Indices[i]]
		p1 := hull.Vertices[hull.Indices[i+1]]
		p2 := hull.Vertices[hull.Indices[i+2]]
		volume += p0.Dot(p1.Cross(p2)) / 6.0
	}
	return math.Abs(volume)
}

// renderMidLayer draws the sites of the middle z layer and their
// Delaunay edges, projected onto the xy plane.
func renderMidLayer(b *voronoi.Builder) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	midZ := float64(gridSize-1) * spacing / 2
	inLayer := func(v *voronoi.Vertex) bool {
		return math.Abs(v.Z()-midZ) < spacing
	}
	toScreen := func(v *voronoi.Vertex) (int, int) {
		extent := float64(gridSize) * spacing
		x := int(v.X() / extent * float64(width))
		y := int(v.Y() / extent * float64(height))
		return x, y
	}

	canvas := svg.New(file)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:rgb(255,255,255)")

	for _, v := range b.AllVertex() {
		if !inLayer(v) {
			continue
		}
		x0, y0 := toScreen(v)
		for _, w := range v.NeighborVertex() {
			if inLayer(w) {
				x1, y1 := toScreen(w)
				canvas.Line(x0, y0, x1, y1, edgeStyle)
			}
		}
	}
	for _, v := range b.AllVertex() {
		if inLayer(v) {
			x, y := toScreen(v)
			canvas.Circle(x, y, 3, siteStyle)
		}
	}

	canvas.End()
	return nil
}

func main() {
	b := buildScene().NoWarning(true)

	fmt.Printf("inserted %d sites, %d tetrahedra\n", b.NumVertex(), len(b.AllTetrahedron()))

	site := centerSite(b)
	fmt.Printf("center site: (%.3f, %.3f, %.3f)\n", site.X(), site.Y(), site.Z())
	fmt.Printf("  coordination:  %d\n", site.Coordination())
	fmt.Printf("  atomic volume: %.6f\n", site.AtomicVolume())
	fmt.Printf("  cavity radius: %.6f\n", site.CavityRadius())
	fmt.Printf("  voronoi index: %v\n", site.Index())

	fmt.Printf("  hull volume:   %.6f (pyramid sum %.6f)\n", hullVolume(site), site.AtomicVolume())

	if err := renderMidLayer(b); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s\n", filename)
}
