package multiopen

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/commitment"
	"github.com/eon-protocol/plonkish/poly"
	"github.com/eon-protocol/plonkish/transcript"
)

// ProverQuery opens Poly at Point. Queries on the same polynomial must share
// the backing array.
type ProverQuery struct {
	Point fr.Element
	Poly  poly.Polynomial[poly.Coeff]
}

// Open proves every query, writing [f] and the final opening to w.
func Open(w transcript.Writer, scheme commitment.Scheme, queries []ProverQuery) error {
	if len(queries) == 0 {
		return errNoQueries
	}
	polys := make(map[*fr.Element]poly.Polynomial[poly.Coeff])
	qs := make([]query[*fr.Element], len(queries))
	for i, q := range queries {
		key := &q.Poly[0]
		polys[key] = q.Poly
		qs[i] = query[*fr.Element]{poly: key, point: q.Point, eval: poly.Eval(q.Poly, q.Point)}
	}
	points, groups := construct(qs)

	x1 := w.SqueezeChallenge()
	x2 := w.SqueezeChallenge()

	size := 0
	for _, p := range polys {
		size = max(size, len(p))
	}

	qPolys := make([][]fr.Element, len(groups))
	f := make([]fr.Element, size)
	pow := fr.One()
	for s, g := range groups {
		q := make([]fr.Element, size)
		for _, key := range g.polys {
			p := polys[key]
			for i := range q {
				q[i].Mul(&q[i], &x1)
				if i < len(p) {
					q[i].Add(&q[i], &p[i])
				}
			}
		}
		qPolys[s] = q

		// (q - r)/Z_S
		setPoints := g.pointValues(points)
		r := poly.Interpolate(setPoints, g.compressedEvals(x1))
		num := make([]fr.Element, size)
		copy(num, q)
		for i := range r {
			num[i].Sub(&num[i], &r[i])
		}
		for _, z := range setPoints {
			var zero fr.Element
			num = poly.DividePolyByXminusA(num, zero, z)
		}
		var t fr.Element
		for i := range num {
			t.Mul(&num[i], &pow)
			f[i].Add(&f[i], &t)
		}
		pow.Mul(&pow, &x2)
	}

	fCommitment, err := scheme.Commit(f)
	if err != nil {
		return fmt.Errorf("commit f: %w", err)
	}
	if err := w.WritePoint(fCommitment); err != nil {
		return err
	}

	u := w.SqueezeChallenge()
	weights, _, zT := linearisation(points, groups, x1, x2, u)

	l := make([]fr.Element, size)
	var t fr.Element
	for s, q := range qPolys {
		for i := range l {
			t.Mul(&q[i], &weights[s])
			l[i].Add(&l[i], &t)
		}
	}
	for i := range l {
		t.Mul(&f[i], &zT)
		l[i].Sub(&l[i], &t)
	}
	if err := scheme.Open(w, l, u); err != nil {
		return fmt.Errorf("open linearisation: %w", err)
	}
	return nil
}
