// Package chunk implements the chunker (spec component C, §4.2): it splits
// an input byte region into whitespace-aligned sub-slices suitable for
// handing to the parallel lexer pool. The whitespace alignment is what lets
// the pool's "interesting start states" mechanism work at all: a chunk
// boundary never falls inside a token whose DFA never revisits its start
// state, except for string-like tokens that themselves may contain
// whitespace, which lexpool handles via resumable entry states.
package chunk

import "github.com/dawid33/fernparse/internal/fernparse/synerr"

// isBoundaryByte reports whether b is one of the whitespace bytes the
// chunker is allowed to split after (spec §4.2: "space or newline").
func isBoundaryByte(b byte) bool {
	return b == ' ' || b == '\n'
}

// Split divides input into chunks of at least size bytes, with every chunk
// (other than the first) starting immediately after a whitespace byte, and
// every chunk (other than the last) at least size bytes long. size must be
// positive.
//
// Concatenating the returned chunks always reproduces input exactly (spec
// §4.2 contract (b)); this is what the chunk-boundary invariance property in
// spec §8 relies on.
func Split(input []byte, size int) ([][]byte, error) {
	if size <= 0 {
		return nil, synerr.Lexer("chunk size must be positive, got %d", size)
	}
	if len(input) == 0 {
		return nil, nil
	}

	var chunks [][]byte
	start := 0

	for start < len(input) {
		// target is the earliest position at which this chunk may end: at
		// least size bytes in, unless that runs past the end of input.
		target := start + size
		if target >= len(input) {
			chunks = append(chunks, input[start:])
			break
		}

		end := target
		for end < len(input) && !isBoundaryByte(input[end-1]) {
			end++
		}
		if end >= len(input) {
			chunks = append(chunks, input[start:])
			break
		}

		chunks = append(chunks, input[start:end])
		start = end
	}

	return chunks, nil
}
