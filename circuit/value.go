package circuit

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Value is a witness value that may be absent, as it is during key
// generation.
type Value struct {
	v     fr.Element
	known bool
}

func Known(v fr.Element) Value {
	return Value{v: v, known: true}
}

func KnownUint64(v uint64) Value {
	return Value{v: fr.NewElement(v), known: true}
}

func Unknown() Value {
	return Value{}
}

func (v Value) IsKnown() bool {
	return v.known
}

// Get returns the value or ErrUnknownValue.
func (v Value) Get() (fr.Element, error) {
	if !v.known {
		return fr.Element{}, ErrUnknownValue
	}
	return v.v, nil
}

func (v Value) Add(o Value) Value {
	return v.zip(o, func(a, b *fr.Element) { a.Add(a, b) })
}

func (v Value) Sub(o Value) Value {
	return v.zip(o, func(a, b *fr.Element) { a.Sub(a, b) })
}

func (v Value) Mul(o Value) Value {
	return v.zip(o, func(a, b *fr.Element) { a.Mul(a, b) })
}

func (v Value) Neg() Value {
	if !v.known {
		return v
	}
	v.v.Neg(&v.v)
	return v
}

// Map applies f to a known value.
func (v Value) Map(f func(fr.Element) fr.Element) Value {
	if !v.known {
		return v
	}
	return Known(f(v.v))
}

func (v Value) zip(o Value, op func(a, b *fr.Element)) Value {
	if !v.known || !o.known {
		return Unknown()
	}
	op(&v.v, &o.v)
	return v
}
