package cuboid

// Compress decomposes data — an arbitrarily nested sequence of int leaves
// represented as any ([]any of []any/int) — into a CompressedList: the
// maximal-cuboid decomposition of the array with the modal entry value
// chosen as the default and filtered out of the returned entries.
//
// Compress fails with *InconsistentShapeError or *UnexpectedLeafError (or
// ErrInvalidElement, for any element that is neither an int nor a nested
// sequence) if data does not have a consistent rectangular shape.
func Compress(data any) (cl CompressedList, err error) {
	defer errRecover(&err)

	buf, shape := flattenAndValidate(data)
	entries := decompose(buf, shape)

	defaultValue, filtered := chooseDefault(entries)
	return CompressedList{Shape: shape, DefaultValue: defaultValue, Entries: filtered}, nil
}

// chooseDefault tallies the multiset of entry values, picks the most
// frequent as the default (ties broken by first-seen index, since map
// iteration order is not a portable tie-break), and returns the default
// value alongside the entries whose value differs from it.
func chooseDefault(entries []DataEntry) (int, []DataEntry) {
	counts := make(map[int]int)
	var order []int
	for _, e := range entries {
		if _, seen := counts[e.Value]; !seen {
			order = append(order, e.Value)
		}
		counts[e.Value]++
	}

	var defaultValue int
	bestCount := -1
	for _, v := range order {
		if counts[v] > bestCount {
			bestCount = counts[v]
			defaultValue = v
		}
	}

	filtered := make([]DataEntry, 0, len(entries))
	for _, e := range entries {
		if e.Value != defaultValue {
			filtered = append(filtered, e)
		}
	}
	return defaultValue, filtered
}
