// Package rlc accumulates a random linear combination of committed values
// with a challenge drawn after they are committed:
//
//	acc[0] = 0, acc[i+1] = acc[i]·r + v[i]
package rlc

import (
	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/poly"
)

type Config struct {
	Values circuit.Column
	Acc    circuit.Column
	R      circuit.Challenge
	QFirst circuit.Selector
	QStep  circuit.Selector
}

type Circuit struct {
	Values []circuit.Value
	// Tamper, when set, is added to the final accumulator.
	Tamper circuit.Value
}

func New(values ...uint64) *Circuit {
	c := &Circuit{Values: make([]circuit.Value, len(values)), Tamper: circuit.KnownUint64(0)}
	for i, v := range values {
		c.Values[i] = circuit.KnownUint64(v)
	}
	return c
}

func (*Circuit) Configure(cs *circuit.ConstraintSystem) Config {
	cfg := Config{
		Values: cs.AdviceColumnInPhase(circuit.FirstPhase),
		QFirst: cs.Selector(),
		QStep:  cs.Selector(),
	}
	cfg.R = cs.ChallengeUsableAfter(circuit.FirstPhase)
	cfg.Acc = cs.AdviceColumnInPhase(circuit.SecondPhase)

	cs.CreateGate("rlc", func(vc *circuit.VirtualCells) []circuit.Expression {
		first := vc.QuerySelector(cfg.QFirst)
		step := vc.QuerySelector(cfg.QStep)
		v := vc.QueryAdvice(cfg.Values, poly.Cur)
		acc := vc.QueryAdvice(cfg.Acc, poly.Cur)
		next := vc.QueryAdvice(cfg.Acc, poly.Next)
		r := vc.QueryChallenge(cfg.R)
		return []circuit.Expression{
			circuit.Mul(first, acc),
			circuit.Mul(step, circuit.Sub(next, circuit.Add(circuit.Mul(acc, r), v))),
		}
	})
	return cfg
}

func (me *Circuit) Synthesize(cfg Config, asg circuit.Assignment) error {
	asg.PushNamespace("rlc")
	defer asg.PopNamespace()

	r := asg.Challenge(cfg.R)
	acc := circuit.KnownUint64(0)
	if err := asg.EnableSelector(cfg.QFirst, 0); err != nil {
		return err
	}
	for i, v := range me.Values {
		if err := asg.EnableSelector(cfg.QStep, i); err != nil {
			return err
		}
		if err := asg.AssignAdvice(cfg.Values, i, v); err != nil {
			return err
		}
		if err := asg.AssignAdvice(cfg.Acc, i, acc); err != nil {
			return err
		}
		acc = acc.Mul(r).Add(v)
	}
	return asg.AssignAdvice(cfg.Acc, len(me.Values), acc.Add(me.Tamper))
}
