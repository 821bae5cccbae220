package c3

import (
	"errors"
	"fmt"
)

// ErrInconsistent is the sentinel wrapped by every [ConflictError]. Use
// errors.Is(err, c3.ErrInconsistent) when the conflicting heads are not needed.
var ErrInconsistent = errors.New("no consistent linearization")

// ConflictError reports a merge step at which no sequence head was eligible.
// Heads lists the distinct remaining heads in sequence order; each of them
// occurs in the tail of at least one other sequence.
type ConflictError[T comparable] struct {
	Heads []T
}

func (e *ConflictError[T]) Error() string {
	return fmt.Sprintf("%v: conflicting heads %v", ErrInconsistent, e.Heads)
}

func (e *ConflictError[T]) Unwrap() error { return ErrInconsistent }

// Merge performs the C3 merge of seqs.
//
// At each step Merge selects the head of the first sequence whose head does not
// occur in the tail of any sequence, appends it to the result, and removes it
// from the front of every sequence it heads. It stops when every sequence is
// exhausted. Selection depends only on the order of seqs and of their elements,
// never on element values, so the result is deterministic.
//
// The input slices are not modified. Empty sequences are ignored. When no head
// is eligible, Merge returns the prefix merged so far together with a
// *[ConflictError].
//
// # Performance
//
// Tail membership is tracked with a counter per element, so each step costs
// O(k) for k live sequences and the whole merge O(k·n) for n output elements.
func Merge[T comparable](seqs ...[]T) ([]T, error) {
	live := make([][]T, 0, len(seqs))
	total := 0
	for _, s := range seqs {
		if len(s) > 0 {
			live = append(live, s)
			total += len(s)
		}
	}

	inTail := make(map[T]int, total)
	for _, s := range live {
		for _, x := range s[1:] {
			inTail[x]++
		}
	}

	out := make([]T, 0, total)
	for len(live) > 0 {
		var next T
		found := false
		for _, s := range live {
			if inTail[s[0]] == 0 {
				next, found = s[0], true
				break
			}
		}
		if !found {
			return out, &ConflictError[T]{Heads: heads(live)}
		}

		out = append(out, next)
		kept := live[:0]
		for _, s := range live {
			if s[0] == next {
				s = s[1:]
				if len(s) > 0 {
					inTail[s[0]]--
				}
			}
			if len(s) > 0 {
				kept = append(kept, s)
			}
		}
		live = kept
	}
	return out, nil
}

// Linearize computes head + merge(lin(b1), …, lin(bn), bases).
//
// lin must return the already-computed linearization of a base. Linearize
// does not recurse on its own; callers decide the evaluation order.
func Linearize[T comparable](head T, bases []T, lin func(T) []T) ([]T, error) {
	seqs := make([][]T, 0, len(bases)+1)
	for _, b := range bases {
		seqs = append(seqs, lin(b))
	}
	seqs = append(seqs, bases)

	merged, err := Merge(seqs...)
	if err != nil {
		return nil, err
	}
	return append([]T{head}, merged...), nil
}

func heads[T comparable](live [][]T) []T {
	seen := make(map[T]bool, len(live))
	var out []T
	for _, s := range live {
		if !seen[s[0]] {
			seen[s[0]] = true
			out = append(out, s[0])
		}
	}
	return out
}
