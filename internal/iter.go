// Package internal holds iterator helpers shared by the emulator packages.
package internal

import (
	"iter"
)

// IterSeq2Concat concatenates dual-return iterators, in order, into a single
// iterator sequence. Equates built from it let later sequences override
// earlier ones.
func IterSeq2Concat[T1 any, T2 any](seqs ...iter.Seq2[T1, T2]) iter.Seq2[T1, T2] {
	return func(yield func(T1, T2) bool) {
		for _, seq := range seqs {
			for val1, val2 := range seq {
				if !yield(val1, val2) {
					return
				}
			}
		}
	}
}
