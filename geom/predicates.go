// Package geom implements robust geometric predicates for points in R³.
//
// The orientation and in-sphere tests are notoriously susceptible to
// roundoff: the naive determinant can report the wrong sign when the
// input points are nearly coplanar or nearly cospherical, which is
// exactly when a Delaunay algorithm asks. Each predicate therefore runs
// in two stages: a fast floating-point evaluation with an a-priori error
// bound, and an exact fallback on multi-precision expansions that is
// entered only when the fast result cannot be certified.
//
// References:
//   - Shewchuk: "Delaunay Refinement Mesh Generation", Ph.D. dissertation,
//     Carnegie Mellon University (1997)
//   - Ledoux: "Computing the 3D Voronoi Diagram Robustly: An Easy
//     Explanation" (2007)
package geom

import (
	"github.com/akmonengine/voronoi/expansion"
	"github.com/go-gl/mathgl/mgl64"
)

// Error bounds on the fast determinant evaluations, as multiples of the
// machine epsilon times the permanent of the determinant.
var (
	o3dErrBound = 8.0 * expansion.Epsilon
	insErrBound = 17.0 * expansion.Epsilon
)

// Area returns the area of triangle (a, b, c). Never negative.
func Area(a, b, c mgl64.Vec3) float64 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	return 0.5 * ab.Cross(ac).Len()
}

// LeftOfPlane determines if point d is left of the plane defined by the
// points a, b and c, which are assumed to be in CCW order as viewed from
// the right side of the plane.
//
// Returns positive if left of the plane, negative if right, zero if d
// lies exactly on the plane. The sign is exact for any finite inputs.
func LeftOfPlane(a, b, c, d mgl64.Vec3) float64 {
	adx := a[0] - d[0]
	bdx := b[0] - d[0]
	cdx := c[0] - d[0]
	ady := a[1] - d[1]
	bdy := b[1] - d[1]
	cdy := c[1] - d[1]
	adz := a[2] - d[2]
	bdz := b[2] - d[2]
	cdz := c[2] - d[2]

	bdxcdy := bdx * cdy
	cdxbdy := cdx * bdy

	cdxady := cdx * ady
	adxcdy := adx * cdy

	adxbdy := adx * bdy
	bdxady := bdx * ady

	det := adz*(bdxcdy-cdxbdy) + bdz*(cdxady-adxcdy) + cdz*(adxbdy-bdxady)

	permanent := (abs(bdxcdy)+abs(cdxbdy))*abs(adz) +
		(abs(cdxady)+abs(adxcdy))*abs(bdz) +
		(abs(adxbdy)+abs(bdxady))*abs(cdz)
	errbound := o3dErrBound * permanent
	if det > errbound || -det > errbound {
		return det
	}

	return leftOfPlaneExact(a, b, c, d)
}

// InSphere determines if point e is inside the sphere defined by the
// points a, b, c and d, which are assumed to be in CCW order such that
// LeftOfPlane(a, b, c, d) would return a positive number.
//
// Returns positive if inside the sphere, negative if outside, zero if e
// lies exactly on the sphere. The sign is exact for any finite inputs.
func InSphere(a, b, c, d, e mgl64.Vec3) float64 {
	aex := a[0] - e[0]
	bex := b[0] - e[0]
	cex := c[0] - e[0]
	dex := d[0] - e[0]
	aey := a[1] - e[1]
	bey := b[1] - e[1]
	cey := c[1] - e[1]
	dey := d[1] - e[1]
	aez := a[2] - e[2]
	bez := b[2] - e[2]
	cez := c[2] - e[2]
	dez := d[2] - e[2]

	aexbey := aex * bey
	bexaey := bex * aey
	ab := aexbey - bexaey
	bexcey := bex * cey
	cexbey := cex * bey
	bc := bexcey - cexbey
	cexdey := cex * dey
	dexcey := dex * cey
	cd := cexdey - dexcey
	dexaey := dex * aey
	aexdey := aex * dey
	da := dexaey - aexdey

	aexcey := aex * cey
	cexaey := cex * aey
	ac := aexcey - cexaey
	bexdey := bex * dey
	dexbey := dex * bey
	bd := bexdey - dexbey

	abc := aez*bc - bez*ac + cez*ab
	bcd := bez*cd - cez*bd + dez*bc
	cda := cez*da + dez*ac + aez*cd
	dab := dez*ab + aez*bd + bez*da

	alift := aex*aex + aey*aey + aez*aez
	blift := bex*bex + bey*bey + bez*bez
	clift := cex*cex + cey*cey + cez*cez
	dlift := dex*dex + dey*dey + dez*dez

	det := dlift*abc - clift*dab + (blift*cda - alift*bcd)

	aez = abs(aez)
	bez = abs(bez)
	cez = abs(cez)
	dez = abs(dez)
	aexbey = abs(aexbey)
	bexaey = abs(bexaey)
	bexcey = abs(bexcey)
	cexbey = abs(cexbey)
	cexdey = abs(cexdey)
	dexcey = abs(dexcey)
	dexaey = abs(dexaey)
	aexdey = abs(aexdey)
	aexcey = abs(aexcey)
	cexaey = abs(cexaey)
	bexdey = abs(bexdey)
	dexbey = abs(dexbey)
	permanent := ((cexdey+dexcey)*bez+(dexbey+bexdey)*cez+(bexcey+cexbey)*dez)*alift +
		((dexaey+aexdey)*cez+(aexcey+cexaey)*dez+(cexdey+dexcey)*aez)*blift +
		((aexbey+bexaey)*dez+(bexdey+dexbey)*aez+(dexaey+aexdey)*bez)*clift +
		((bexcey+cexbey)*aez+(cexaey+aexcey)*bez+(aexbey+bexaey)*cez)*dlift
	errbound := insErrBound * permanent
	if det > errbound || -det > errbound {
		return det
	}

	return inSphereExact(a, b, c, d, e)
}

// CenterSphere computes the center of the sphere defined by the points
// a, b, c and d, assumed to be in CCW order such that LeftOfPlane(a, b,
// c, d) would return a positive number. The result is a floating-point
// estimate, not an exact value; it is undefined when the four points are
// coplanar.
func CenterSphere(a, b, c, d mgl64.Vec3) mgl64.Vec3 {
	adx := a[0] - d[0]
	bdx := b[0] - d[0]
	cdx := c[0] - d[0]
	ady := a[1] - d[1]
	bdy := b[1] - d[1]
	cdy := c[1] - d[1]
	adz := a[2] - d[2]
	bdz := b[2] - d[2]
	cdz := c[2] - d[2]
	ads := adx*adx + ady*ady + adz*adz
	bds := bdx*bdx + bdy*bdy + bdz*bdz
	cds := cdx*cdx + cdy*cdy + cdz*cdz
	scale := 0.5 / LeftOfPlane(a, b, c, d)
	return mgl64.Vec3{
		d[0] + scale*(ads*(bdy*cdz-cdy*bdz)+bds*(cdy*adz-ady*cdz)+cds*(ady*bdz-bdy*adz)),
		d[1] + scale*(ads*(bdz*cdx-cdz*bdx)+bds*(cdz*adx-adz*cdx)+cds*(adz*bdx-bdz*adx)),
		d[2] + scale*(ads*(bdx*cdy-cdx*bdy)+bds*(cdx*ady-adx*cdy)+cds*(adx*bdy-bdx*ady)),
	}
}

func abs(a float64) float64 {
	if a < 0.0 {
		return -a
	}
	return a
}
