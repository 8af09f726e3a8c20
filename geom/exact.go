package geom

import (
	"sync"

	"github.com/akmonengine/voronoi/expansion"
	"github.com/go-gl/mathgl/mgl64"
)

// scratch holds every buffer the exact pipelines need, sized to the
// worst case of the expansion composition graph. The exact in-sphere
// test alone touches around thirty buffers up to 27648 doubles, so a
// fresh allocation per call would dominate the predicate cost; instead
// each call borrows a scratch from the pool.
type scratch struct {
	tta, ttb               [8]float64
	ab, bc, cd, da, ac, bd [16]float64
	t32a, t32b             [32]float64
	t64a, t64b, t64c       [64]float64
	t128                   [128]float64
	t192                   [192]float64
	detx, detxt            [384]float64
	detxx, detxxt, detxtxt [768]float64
	x1                     [1536]float64
	x2, y2, z2             [2304]float64
	detxy                  [4608]float64
	adet, bdet, cdet, ddet [6912]float64
	abdet, cddet           [13824]float64
	det                    [27648]float64
}

var scratchPool = sync.Pool{
	New: func() interface{} {
		return new(scratch)
	},
}

// minor writes the zero-eliminated expansion of px*qy - qx*py into out,
// where (px, pxt) etc. are head/tail pairs, and returns its length.
func (s *scratch) minor(px, pxt, py, pyt, qx, qxt, qy, qyt float64, out []float64) int {
	expansion.TwoTwoProduct(px, pxt, qy, qyt, &s.tta)
	expansion.TwoTwoProduct(qx, qxt, -py, -pyt, &s.ttb)
	return expansion.SumZeroElimFast(s.tta[:], s.ttb[:], out)
}

// scalePair writes the expansion of e*(b + btail) into out and returns
// its length. out must hold 4*len(e) components.
func (s *scratch) scalePair(e []float64, b, btail float64, out []float64) int {
	alen := expansion.ScaleZeroElim(e, b, s.t32a[:])
	blen := expansion.ScaleZeroElim(e, btail, s.t32b[:])
	return expansion.SumZeroElimFast(s.t32a[:alen], s.t32b[:blen], out)
}

// minorSum accumulates m1*z1 + m2*z2 + m3*z3 into t192, where each mi is
// a 2x2 minor expansion and each zi a head/tail pair. This is one signed
// 3x3 subdeterminant of the in-sphere matrix.
func (s *scratch) minorSum(m1 []float64, z1, z1t float64, m2 []float64, z2, z2t float64, m3 []float64, z3, z3t float64) int {
	alen := s.scalePair(m1, z1, z1t, s.t64a[:])
	blen := s.scalePair(m2, z2, z2t, s.t64b[:])
	clen := s.scalePair(m3, z3, z3t, s.t64c[:])
	ablen := expansion.SumZeroElimFast(s.t64a[:alen], s.t64b[:blen], s.t128[:])
	return expansion.SumZeroElimFast(s.t64c[:clen], s.t128[:ablen], s.t192[:])
}

// liftAxis multiplies the subdeterminant t by the exactly squared
// coordinate (e + etail)² and writes the result into out.
func (s *scratch) liftAxis(t []float64, e, etail float64, out []float64) int {
	xlen := expansion.ScaleZeroElim(t, e, s.detx[:])
	xxlen := expansion.ScaleZeroElim(s.detx[:xlen], e, s.detxx[:])
	xtlen := expansion.ScaleZeroElim(t, etail, s.detxt[:])
	xxtlen := expansion.ScaleZeroElim(s.detxt[:xtlen], e, s.detxxt[:])
	for i := 0; i < xxtlen; i++ {
		s.detxxt[i] *= 2.0
	}
	xtxtlen := expansion.ScaleZeroElim(s.detxt[:xtlen], etail, s.detxtxt[:])
	x1len := expansion.SumZeroElimFast(s.detxx[:xxlen], s.detxxt[:xxtlen], s.x1[:])
	return expansion.SumZeroElimFast(s.x1[:x1len], s.detxtxt[:xtxtlen], out)
}

// pointDet multiplies the subdeterminant t by the lifted term
// ex² + ey² + ez² of one point and writes the result into out.
func (s *scratch) pointDet(t []float64, ex, ext, ey, eyt, ez, ezt float64, out []float64) int {
	x2len := s.liftAxis(t, ex, ext, s.x2[:])
	y2len := s.liftAxis(t, ey, eyt, s.y2[:])
	z2len := s.liftAxis(t, ez, ezt, s.z2[:])
	xylen := expansion.SumZeroElimFast(s.x2[:x2len], s.y2[:y2len], s.detxy[:])
	return expansion.SumZeroElimFast(s.z2[:z2len], s.detxy[:xylen], out)
}

func leftOfPlaneExact(a, b, c, d mgl64.Vec3) float64 {
	s := scratchPool.Get().(*scratch)
	defer scratchPool.Put(s)

	adx, adxtail := expansion.TwoDiff(a[0], d[0])
	ady, adytail := expansion.TwoDiff(a[1], d[1])
	adz, adztail := expansion.TwoDiff(a[2], d[2])
	bdx, bdxtail := expansion.TwoDiff(b[0], d[0])
	bdy, bdytail := expansion.TwoDiff(b[1], d[1])
	bdz, bdztail := expansion.TwoDiff(b[2], d[2])
	cdx, cdxtail := expansion.TwoDiff(c[0], d[0])
	cdy, cdytail := expansion.TwoDiff(c[1], d[1])
	cdz, cdztail := expansion.TwoDiff(c[2], d[2])

	bclen := s.minor(bdx, bdxtail, bdy, bdytail, cdx, cdxtail, cdy, cdytail, s.bc[:])
	calen := s.minor(cdx, cdxtail, cdy, cdytail, adx, adxtail, ady, adytail, s.ac[:])
	ablen := s.minor(adx, adxtail, ady, adytail, bdx, bdxtail, bdy, bdytail, s.ab[:])

	alen := s.scalePair(s.bc[:bclen], adz, adztail, s.t64a[:])
	blen := s.scalePair(s.ac[:calen], bdz, bdztail, s.t64b[:])
	clen := s.scalePair(s.ab[:ablen], cdz, cdztail, s.t64c[:])

	sumlen := expansion.SumZeroElimFast(s.t64a[:alen], s.t64b[:blen], s.t128[:])
	detlen := expansion.SumZeroElimFast(s.t128[:sumlen], s.t64c[:clen], s.t192[:])

	return s.t192[detlen-1]
}

func inSphereExact(a, b, c, d, e mgl64.Vec3) float64 {
	s := scratchPool.Get().(*scratch)
	defer scratchPool.Put(s)

	aex, aextail := expansion.TwoDiff(a[0], e[0])
	aey, aeytail := expansion.TwoDiff(a[1], e[1])
	aez, aeztail := expansion.TwoDiff(a[2], e[2])
	bex, bextail := expansion.TwoDiff(b[0], e[0])
	bey, beytail := expansion.TwoDiff(b[1], e[1])
	bez, beztail := expansion.TwoDiff(b[2], e[2])
	cex, cextail := expansion.TwoDiff(c[0], e[0])
	cey, ceytail := expansion.TwoDiff(c[1], e[1])
	cez, ceztail := expansion.TwoDiff(c[2], e[2])
	dex, dextail := expansion.TwoDiff(d[0], e[0])
	dey, deytail := expansion.TwoDiff(d[1], e[1])
	dez, deztail := expansion.TwoDiff(d[2], e[2])

	// The six 2x2 minors of the paired x/y columns.
	ablen := s.minor(aex, aextail, aey, aeytail, bex, bextail, bey, beytail, s.ab[:])
	bclen := s.minor(bex, bextail, bey, beytail, cex, cextail, cey, ceytail, s.bc[:])
	cdlen := s.minor(cex, cextail, cey, ceytail, dex, dextail, dey, deytail, s.cd[:])
	dalen := s.minor(dex, dextail, dey, deytail, aex, aextail, aey, aeytail, s.da[:])
	aclen := s.minor(aex, aextail, aey, aeytail, cex, cextail, cey, ceytail, s.ac[:])
	bdlen := s.minor(bex, bextail, bey, beytail, dex, dextail, dey, deytail, s.bd[:])

	// One signed 3x3 subdeterminant and one lifted product per point.
	tlen := s.minorSum(s.cd[:cdlen], -bez, -beztail, s.bd[:bdlen], cez, ceztail, s.bc[:bclen], -dez, -deztail)
	alen := s.pointDet(s.t192[:tlen], aex, aextail, aey, aeytail, aez, aeztail, s.adet[:])

	tlen = s.minorSum(s.da[:dalen], cez, ceztail, s.ac[:aclen], dez, deztail, s.cd[:cdlen], aez, aeztail)
	blen := s.pointDet(s.t192[:tlen], bex, bextail, bey, beytail, bez, beztail, s.bdet[:])

	tlen = s.minorSum(s.ab[:ablen], -dez, -deztail, s.bd[:bdlen], -aez, -aeztail, s.da[:dalen], -bez, -beztail)
	clen := s.pointDet(s.t192[:tlen], cex, cextail, cey, ceytail, cez, ceztail, s.cdet[:])

	tlen = s.minorSum(s.bc[:bclen], aez, aeztail, s.ac[:aclen], -bez, -beztail, s.ab[:ablen], cez, ceztail)
	dlen := s.pointDet(s.t192[:tlen], dex, dextail, dey, deytail, dez, deztail, s.ddet[:])

	sumab := expansion.SumZeroElimFast(s.adet[:alen], s.bdet[:blen], s.abdet[:])
	sumcd := expansion.SumZeroElimFast(s.cdet[:clen], s.ddet[:dlen], s.cddet[:])
	detlen := expansion.SumZeroElimFast(s.abdet[:sumab], s.cddet[:sumcd], s.det[:])

	return s.det[detlen-1]
}
