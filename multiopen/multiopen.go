// Package multiopen batches polynomial openings at several points into a
// single opening proof of the underlying commitment scheme.
//
// Queries are grouped by the set of points their polynomial is opened at.
// Each set S is compressed with x1 into q_S, the sets are merged with x2 into
// f = Σ x2^s (q_S - r_S)/Z_S, and the linearisation
//
//	L = Σ x2^s Z_{T\S}(u) q_S - Z_T(u) f
//
// is opened at the random point u = x3, where it must take the value
// Σ x2^s Z_{T\S}(u) r_S(u).
package multiopen

import (
	"errors"
	"slices"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/poly"
)

var errNoQueries = errors.New("multiopen: no queries")

// pointSet is a sorted list of indices into the deduplicated points.
type pointSet []int

type group[P comparable] struct {
	points pointSet
	polys  []P
	// evals[j][i] is polys[j] at points[i]
	evals [][]fr.Element
}

type query[P comparable] struct {
	poly  P
	point fr.Element
	eval  fr.Element
}

// construct dedupes points and groups polynomials by point set, both in
// first-appearance order.
func construct[P comparable](queries []query[P]) ([]fr.Element, []*group[P]) {
	var points []fr.Element
	pointIdx := func(x fr.Element) int {
		i := slices.IndexFunc(points, func(p fr.Element) bool { return p.Equal(&x) })
		if i < 0 {
			points = append(points, x)
			i = len(points) - 1
		}
		return i
	}

	type polyInfo struct {
		points pointSet
		evals  map[int]fr.Element
	}
	var order []P
	infos := make(map[P]*polyInfo)
	for _, q := range queries {
		info, ok := infos[q.poly]
		if !ok {
			info = &polyInfo{evals: make(map[int]fr.Element)}
			infos[q.poly] = info
			order = append(order, q.poly)
		}
		i := pointIdx(q.point)
		if _, seen := info.evals[i]; !seen {
			info.points = append(info.points, i)
			info.evals[i] = q.eval
		}
	}

	var groups []*group[P]
	for _, p := range order {
		info := infos[p]
		slices.Sort(info.points)
		gi := slices.IndexFunc(groups, func(g *group[P]) bool { return slices.Equal(g.points, info.points) })
		if gi < 0 {
			groups = append(groups, &group[P]{points: info.points})
			gi = len(groups) - 1
		}
		g := groups[gi]
		evals := make([]fr.Element, len(info.points))
		for i, pt := range info.points {
			evals[i] = info.evals[pt]
		}
		g.polys = append(g.polys, p)
		g.evals = append(g.evals, evals)
	}
	return points, groups
}

// compressedEvals returns Σ x1^{m-1-j} evals[j][i] for every point i.
func (g *group[P]) compressedEvals(x1 fr.Element) []fr.Element {
	res := make([]fr.Element, len(g.points))
	for _, evals := range g.evals {
		for i := range res {
			res[i].Mul(&res[i], &x1).Add(&res[i], &evals[i])
		}
	}
	return res
}

func (g *group[P]) pointValues(points []fr.Element) []fr.Element {
	res := make([]fr.Element, len(g.points))
	for i, p := range g.points {
		res[i] = points[p]
	}
	return res
}

// vanishingAt returns ∏ (u - p) over the given points.
func vanishingAt(points []fr.Element, u fr.Element) fr.Element {
	res := fr.One()
	var t fr.Element
	for i := range points {
		t.Sub(&u, &points[i])
		res.Mul(&res, &t)
	}
	return res
}

// linearisation computes, for each set S, the weight x2^s·Z_{T\S}(u) and
// r_S(u), along with Z_T(u).
func linearisation[P comparable](points []fr.Element, groups []*group[P], x1, x2, u fr.Element) (weights, rEvals []fr.Element, zT fr.Element) {
	zT = vanishingAt(points, u)
	weights = make([]fr.Element, len(groups))
	rEvals = make([]fr.Element, len(groups))
	pow := fr.One()
	for s, g := range groups {
		inSet := make([]bool, len(points))
		for _, p := range g.points {
			inSet[p] = true
		}
		var outside []fr.Element
		for i := range points {
			if !inSet[i] {
				outside = append(outside, points[i])
			}
		}
		z := vanishingAt(outside, u)
		weights[s].Mul(&pow, &z)

		r := poly.Interpolate(g.pointValues(points), g.compressedEvals(x1))
		rEvals[s] = poly.Eval(r, u)
		pow.Mul(&pow, &x2)
	}
	return weights, rEvals, zT
}
