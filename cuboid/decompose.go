package cuboid

// decompose repeatedly picks the lowest remaining cell in lexicographic
// index order, measures the maximal cuboid of equal value anchored at that
// cell, emits a DataEntry, and marks those cells consumed (by nilling their
// slot in buf). It returns the entries in the order they were produced,
// which is strictly increasing lexicographic Path order.
func decompose(buf []*int, shape []int) []DataEntry {
	st := strides(shape)
	maxIndex := size(shape)

	var entries []DataEntry
	for index := 0; index < maxIndex; {
		path := indexToPath(shape, index)
		if buf[pathToIndex(st, path)] == nil {
			index++
			continue
		}
		entry := consumeEntry(buf, shape, st, path)
		entries = append(entries, entry)
		index += entry.Lengths[len(entry.Lengths)-1]
	}
	return entries
}

// consumeEntry computes the maximal cuboid of equal value anchored at path,
// marks every cell in it as consumed, and returns the corresponding
// DataEntry.
func consumeEntry(buf []*int, shape, st, path []int) DataEntry {
	value := *buf[pathToIndex(st, path)]
	lengths := calculateCuboid(buf, shape, st, path, value)
	resetCuboid(buf, st, path, lengths)
	return DataEntry{Value: value, Path: path, Lengths: lengths}
}

// calculateCuboid extends a cuboid one axis at a time, innermost (fastest
// varying) axis first, the way the reference's calculate_cuboid does: for
// each axis (from k-1 down to 0), keep incrementing that axis's length while
// the newly-exposed slab of the cuboid (one cell thick along this axis, full
// extent along every axis already grown) is entirely non-consumed and equal
// to value.
func calculateCuboid(buf []*int, shape, st, path []int, value int) []int {
	k := len(shape)
	lengths := make([]int, k)
	for dim := k - 1; dim >= 0; dim-- {
		for path[dim]+lengths[dim] < shape[dim] {
			if !slabMatches(buf, st, path, lengths, dim, value) {
				break
			}
			lengths[dim]++
		}
	}
	return lengths
}

// slabMatches reports whether the slab of the cuboid currently described by
// lengths, but with axis dim's extent held at exactly one cell offset at the
// current lengths[dim] boundary, is entirely non-consumed and equal to
// value. It iterates the cross-section of the other already-grown axes
// directly, rather than recursing, since the flat buffer supports strided
// indexing.
func slabMatches(buf []*int, st, path, lengths []int, dim int, value int) bool {
	k := len(lengths)
	extent := make([]int, k)
	copy(extent, lengths)
	extent[dim] = 1

	offset := make([]int, k)
	copy(offset, path)
	offset[dim] = path[dim] + lengths[dim]

	cursor := make([]int, k)
	for {
		cell := make([]int, k)
		for i := 0; i < k; i++ {
			cell[i] = offset[i] + cursor[i]
		}
		idx := pathToIndex(st, cell)
		if buf[idx] == nil || *buf[idx] != value {
			return false
		}

		// Odometer increment over cursor within [0, extent).
		i := k - 1
		for ; i >= 0; i-- {
			cursor[i]++
			if cursor[i] < extent[i] {
				break
			}
			cursor[i] = 0
		}
		if i < 0 {
			return true
		}
	}
}

// resetCuboid marks every cell of the cuboid anchored at path with the given
// lengths as consumed.
func resetCuboid(buf []*int, st, path, lengths []int) {
	k := len(path)
	cursor := make([]int, k)
	for {
		cell := make([]int, k)
		for i := 0; i < k; i++ {
			cell[i] = path[i] + cursor[i]
		}
		buf[pathToIndex(st, cell)] = nil

		i := k - 1
		for ; i >= 0; i-- {
			cursor[i]++
			if cursor[i] < lengths[i] {
				break
			}
			cursor[i] = 0
		}
		if i < 0 {
			return
		}
	}
}
