package cuboid

import (
	"sort"
	"strconv"
)

// Serialise encodes a CompressedList, together with optional user metadata,
// into the self-describing byte format described in SPEC_FULL.md §4.5. Any
// userMetadata key that collides with a reserved key is silently dropped.
func Serialise(cl CompressedList, userMetadata map[string]string) []byte {
	values, valueLookup, deltas := buildDictionary(cl.Entries)

	var maxPathSizes, maxLengthSizes []int
	var valueWidth int
	var entryBits []byte
	var entryPad int
	if len(cl.Entries) > 0 {
		maxPathSizes, maxLengthSizes = fieldWidths(cl.Entries, len(cl.Shape))
		valueWidth = bitWidth(len(values))
		entryBits = packEntries(cl.Entries, valueLookup, valueWidth, maxPathSizes, maxLengthSizes)
		entryPad = (8 - len(entryBits)%8) % 8
	}

	var records [][2][]byte

	for k, v := range userMetadata {
		if reservedKeys[k] {
			continue
		}
		records = append(records, record(k, []byte(v)))
	}

	records = append(records, record("VN", varBytes(uint64(Version))))
	if cl.DefaultValue >= 0 {
		records = append(records, record("DP", varBytes(uint64(cl.DefaultValue))))
	} else {
		records = append(records, record("DN", varBytes(uint64(-cl.DefaultValue))))
	}
	records = append(records, record("SD", varBytesList(cl.Shape)))

	if len(cl.Entries) > 0 {
		if values[0] >= 0 {
			records = append(records, record("MP", varBytes(uint64(values[0]))))
		} else {
			records = append(records, record("MN", varBytes(uint64(-values[0]))))
		}

		dictBits, dr, db := packDictionary(deltas)
		dictPad := (8 - len(dictBits)%8) % 8
		records = append(records, record("VC", varBytes(uint64(len(values)))))
		records = append(records, record("DR", varBytes(uint64(dr))))
		records = append(records, record("DB", varBytes(uint64(db))))
		records = append(records, record("VD", bitsToBytes(dictBits)))
		records = append(records, record("RO", []byte(strconv.Itoa(dictPad))))
		records = append(records, record("AS", varBytesList(append(append([]int(nil), maxPathSizes...), maxLengthSizes...))))
		records = append(records, record("DO", []byte(strconv.Itoa(entryPad))))
	}

	var out []byte
	for i, rec := range records {
		if i > 0 || len(out) > 0 {
			out = append(out, 0x00)
		}
		out = append(out, rec[0]...)
		out = append(out, 0x00)
		out = append(out, rec[1]...)
	}

	if len(cl.Entries) > 0 {
		if len(out) > 0 {
			out = append(out, 0x00)
		}
		out = append(out, 'C', 'D', 0x00)
		out = append(out, bitsToBytes(entryBits)...)
	}

	return out
}

// record builds an escaped key/value pair, safe to embed between \x00
// record separators: every record but the final CD one is escaped this way,
// both the reserved ASCII keys (a no-op, since they contain no \x00/\x01)
// and their binary values (which can contain either).
func record(key string, value []byte) [2][]byte {
	return [2][]byte{escape([]byte(key)), escape(value)}
}

// buildDictionary returns the sorted distinct entry values, a value->index
// lookup, and the positive gaps between consecutive values.
func buildDictionary(entries []DataEntry) ([]int, map[int]int, []int) {
	seen := make(map[int]bool)
	var values []int
	for _, e := range entries {
		if !seen[e.Value] {
			seen[e.Value] = true
			values = append(values, e.Value)
		}
	}
	sort.Ints(values)

	lookup := make(map[int]int, len(values))
	for i, v := range values {
		lookup[v] = i
	}

	deltas := make([]int, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		deltas = append(deltas, values[i]-values[i-1])
	}
	return values, lookup, deltas
}

// fieldWidths computes the per-axis bit widths for paths and (length-1)
// encoded lengths, from the maximum path/length coordinate observed across
// every entry.
func fieldWidths(entries []DataEntry, k int) ([]int, []int) {
	maxPath := make([]int, k)
	maxLength := make([]int, k)
	for _, e := range entries {
		for i := 0; i < k; i++ {
			if e.Path[i] > maxPath[i] {
				maxPath[i] = e.Path[i]
			}
			if e.Lengths[i] > maxLength[i] {
				maxLength[i] = e.Lengths[i]
			}
		}
	}
	pathSizes := make([]int, k)
	lengthSizes := make([]int, k)
	for i := 0; i < k; i++ {
		pathSizes[i] = bitWidth(maxPath[i])
		lengthSizes[i] = bitWidthExclusive(maxLength[i])
	}
	return pathSizes, lengthSizes
}

// packEntries packs every entry as
// fixedBits(valueIndex, valueWidth) || path fields || (length-1) fields,
// skipping any field whose width is 0.
func packEntries(entries []DataEntry, lookup map[int]int, valueWidth int, pathSizes, lengthSizes []int) []byte {
	var bits []byte
	for _, e := range entries {
		if valueWidth > 0 {
			bits = append(bits, fixedBits(uint64(lookup[e.Value]), valueWidth)...)
		}
		for i, w := range pathSizes {
			if w > 0 {
				bits = append(bits, fixedBits(uint64(e.Path[i]), w)...)
			}
		}
		for i, w := range lengthSizes {
			if w > 0 {
				bits = append(bits, fixedBits(uint64(e.Lengths[i]-1), w)...)
			}
		}
	}
	return bits
}

// packDictionary applies run-length-offset coding to deltas (each delta d is
// stored as the offset d-1; consecutive equal offsets collapse into a
// (run, offset) pair, run counting additional repetitions beyond the
// first) and packs the pairs as fixedBits(run, DR) || fixedBits(offset, DB),
// omitting either field when its width is 0. It returns the packed bits
// along with the field widths DR and DB.
//
// When every pair has run 0 and offset 0 (e.g. a single surviving delta of
// 1), DR and DB are both 0 and the packed bits are empty regardless of how
// many pairs there are: the bit stream alone cannot tell two values apart
// from twenty. The VC record (total dictionary value count) is what makes
// decodeDictionary's pair count recoverable in that case; see Deserialise.
func packDictionary(deltas []int) ([]byte, int, int) {
	type pair struct{ run, offset int }
	var pairs []pair
	for _, d := range deltas {
		offset := d - 1
		if len(pairs) > 0 && pairs[len(pairs)-1].offset == offset {
			pairs[len(pairs)-1].run++
			continue
		}
		pairs = append(pairs, pair{run: 0, offset: offset})
	}

	maxRun, maxOffset := 0, 0
	for _, p := range pairs {
		if p.run > maxRun {
			maxRun = p.run
		}
		if p.offset > maxOffset {
			maxOffset = p.offset
		}
	}
	dr := bitWidth(maxRun)
	db := bitWidth(maxOffset)

	var bits []byte
	for _, p := range pairs {
		if dr > 0 {
			bits = append(bits, fixedBits(uint64(p.run), dr)...)
		}
		if db > 0 {
			bits = append(bits, fixedBits(uint64(p.offset), db)...)
		}
	}
	return bits, dr, db
}
