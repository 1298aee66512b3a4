package chunk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_ConcatenationEqualsInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		size  int
	}{
		{"short input smaller than one chunk", `{"x":1}`, 64},
		{"multiple boundary-aligned chunks", "aaaa bbbb cccc dddd eeee ffff", 10},
		{"newline boundaries", "line1\nline2\nline3\nline4\n", 8},
		{"no whitespace at all", "aaaaaaaaaaaaaaaaaaaaaaaaaaaa", 5},
		{"size larger than input", "short", 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chunks, err := Split([]byte(tc.input), tc.size)
			require.NoError(t, err)

			var rebuilt bytes.Buffer
			for _, c := range chunks {
				rebuilt.Write(c)
			}
			assert.Equal(t, tc.input, rebuilt.String())
		})
	}
}

func TestSplit_BoundariesFollowWhitespace(t *testing.T) {
	input := "aaaa bbbb cccc dddd eeee ffff"
	chunks, err := Split([]byte(input), 10)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	pos := len(chunks[0])
	for _, c := range chunks[1:] {
		assert.True(t, pos > 0 && isBoundaryByte(input[pos-1]), "chunk at byte %d does not start after whitespace", pos)
		pos += len(c)
	}
}

func TestSplit_MinimumChunkLength(t *testing.T) {
	input := "aaaa bbbb cccc dddd eeee ffff gggg hhhh"
	chunks, err := Split([]byte(input), 10)
	require.NoError(t, err)

	for i, c := range chunks {
		if i == len(chunks)-1 {
			continue
		}
		assert.GreaterOrEqual(t, len(c), 10)
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	chunks, err := Split(nil, 4)
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestSplit_RejectsNonPositiveSize(t *testing.T) {
	_, err := Split([]byte("abc"), 0)
	assert.Error(t, err)
}
