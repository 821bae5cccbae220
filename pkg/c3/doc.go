// Package c3 implements the C3 merge used to linearize multiple inheritance
// hierarchies.
//
// # Overview
//
// Given a class C with direct bases B1..Bn in declared order and their
// linearizations L(B1)..L(Bn), the C3 linearization is
//
//	L(C) = C + merge(L(B1), …, L(Bn), [B1, …, Bn])
//
// The result satisfies two properties:
//
//   - Local precedence order: the bases of C keep their declared relative order.
//   - Monotonicity: any two classes ordered in L(Bi) keep that order in L(C).
//
// When no ordering satisfies both, the merge fails with a [ConflictError].
//
// # Usage
//
//	mro, err := c3.Linearize("D", []string{"B", "C"}, func(b string) []string {
//	    return known[b]
//	})
//
// The package is generic over any comparable element type and does not know
// about classes, registries or root sentinels; see package hierarchy for the
// class-level wrapper.
package c3
