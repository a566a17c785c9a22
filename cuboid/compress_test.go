package cuboid

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	var vectors = []any{
		ints(0, 0, 0, 0),
		[]any{ints(1, 1, 1), ints(1, 1, 1)},
		[]any{ints(2, 2, 5), ints(2, 2, 5)},
		[]any{ints(1, 2, 3), ints(4, 5, 6), ints(7, 8, 9)},
		[]any{[]any{ints(1, 1), ints(1, 1)}, []any{ints(1, 1), ints(2, 2)}},
	}
	for i, v := range vectors {
		cl, err := Compress(v)
		if !assert.NoErrorf(t, err, "test %d", i) {
			continue
		}
		got := Decompress(cl)
		if diff := cmp.Diff(v, got); diff != "" {
			t.Errorf("test %d round trip mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestCompressAllDefaultHasNoEntries(t *testing.T) {
	cl, err := Compress([]any{ints(7, 7, 7), ints(7, 7, 7)})
	assert.NoError(t, err)
	assert.Equal(t, 7, cl.DefaultValue)
	assert.Empty(t, cl.Entries)
}

func TestCompressTieBreaksFirstSeen(t *testing.T) {
	// Two values with equal cuboid counts (1 each); the first one produced by
	// decompose (the 2-cuboid starting at path (0,0)) wins the tie.
	cl, err := Compress([]any{ints(2, 2, 5), ints(2, 2, 5)})
	assert.NoError(t, err)
	assert.Equal(t, 2, cl.DefaultValue)
	if assert.Len(t, cl.Entries, 1) {
		assert.Equal(t, 5, cl.Entries[0].Value)
		assert.Equal(t, []int{0, 2}, cl.Entries[0].Path)
		assert.Equal(t, []int{2, 1}, cl.Entries[0].Lengths)
	}
}

func TestCompressEntriesOrderedByPath(t *testing.T) {
	data := []any{ints(1, 2, 3), ints(4, 5, 6)}
	cl, err := Compress(data)
	assert.NoError(t, err)
	for i := 1; i < len(cl.Entries); i++ {
		assert.Truef(t, lexLess(cl.Entries[i-1].Path, cl.Entries[i].Path),
			"entries %d and %d out of lexicographic order: %v, %v", i-1, i, cl.Entries[i-1].Path, cl.Entries[i].Path)
	}
}

func TestCompressInvalidInputPropagatesError(t *testing.T) {
	_, err := Compress([]any{ints(1, 2), 3})
	assert.Error(t, err)
	var leafErr *UnexpectedLeafError
	assert.ErrorAs(t, err, &leafErr)
}

func lexLess(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func TestDecomposeNeverOverlaps(t *testing.T) {
	data := []any{ints(1, 1, 2, 2, 3), ints(1, 1, 2, 2, 3), ints(4, 4, 4, 4, 4)}
	buf, shape := flattenAndValidate(data)
	entries := decompose(buf, shape)

	st := strides(shape)
	seen := make([]bool, size(shape))
	for _, e := range entries {
		cursor := make([]int, len(shape))
		for {
			cell := make([]int, len(shape))
			for i := range cell {
				cell[i] = e.Path[i] + cursor[i]
			}
			idx := pathToIndex(st, cell)
			assert.False(t, seen[idx], "cell %v covered by more than one entry", cell)
			seen[idx] = true

			i := len(shape) - 1
			for ; i >= 0; i-- {
				cursor[i]++
				if cursor[i] < e.Lengths[i] {
					break
				}
				cursor[i] = 0
			}
			if i < 0 {
				break
			}
		}
	}
	for _, s := range seen {
		assert.True(t, s, "every cell should be covered by exactly one entry")
	}
}
