package internal

import (
	"fmt"
	"iter"
)

// SymbolsConcat joins several symbol tables into one sequence.
// Tables later in the list are yielded after earlier ones.
func SymbolsConcat[K comparable, V any](tables ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, table := range tables {
			for key, value := range table {
				if !yield(key, value) {
					return
				}
			}
		}
	}
}

// SymbolsOctal formats the values of a word symbol table as octal
// assembler source, e.g. "0200".
func SymbolsOctal(table iter.Seq2[string, uint16]) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for key, value := range table {
			if !yield(key, fmt.Sprintf("%#o", value)) {
				return
			}
		}
	}
}
