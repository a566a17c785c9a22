package cuboid

// Version is the current format version. Deserialise rejects any payload
// whose VN record does not match this exactly: there is no cross-version
// compatibility.
const Version = 1

// reservedKeys is the set of metadata keys used by the format itself. A user
// metadata key that collides with one of these is silently dropped on
// Serialise.
var reservedKeys = map[string]bool{
	"SD": true, "VN": true, "MP": true, "MN": true,
	"DP": true, "DN": true, "VD": true, "DB": true,
	"DR": true, "RO": true, "AS": true, "DO": true, "CD": true,
	"VC": true,
}

// keysForEntries is the subset of reservedKeys that only appear when the
// entry list is non-empty. Exactly one of MP/MN is present alongside all the
// others, for 9 of the 10 keys below.
//
// VC (the total count of distinct entry values) is what lets the dictionary
// decoder recover how many values it packed when the run-length-offset
// encoding of its deltas happens to take zero bits (every delta is 1): the
// packed bit stream alone is then empty no matter how many values there
// are, so the count has to travel out of band.
var keysForEntries = []string{"MP", "MN", "VC", "VD", "DB", "DR", "RO", "AS", "DO", "CD"}

const minEntriesKeys = 9

// DataEntry records that every cell in the axis-aligned cuboid anchored at
// Path with the given Lengths holds Value. Both Path and Lengths have one
// coordinate per axis of the owning CompressedList's Shape.
type DataEntry struct {
	Value   int
	Path    []int
	Lengths []int
}

// CompressedList is the decomposed form of an N-dimensional integer array:
// every cell not covered by an entry equals DefaultValue, entries never
// overlap, no entry's Value equals DefaultValue, and Entries is ordered by
// ascending lexicographic Path.
type CompressedList struct {
	Shape        []int
	DefaultValue int
	Entries      []DataEntry
}
