package cuboid

import "strconv"

// Deserialise is the inverse of Serialise: it recovers a CompressedList and
// the user metadata map from a byte payload. It returns *VersionMismatchError
// if the VN record does not match Version, and an error satisfying
// IsMalformed for any other structural problem (missing or malformed
// records, truncated bit streams, an entries-present count outside the
// expected 0-or-9-of-10 range).
func Deserialise(data []byte) (cl CompressedList, userMetadata map[string]string, err error) {
	defer errRecover(&err)

	records, cd := unframe(data)

	vn, ok := records["VN"]
	if !ok {
		malformedf("missing VN record")
	}
	version := int(varBytesDecode(vn))
	if version != Version {
		panic(&VersionMismatchError{VersionRead: version})
	}

	if _, hasDP := records["DP"]; !hasDP {
		if _, hasDN := records["DN"]; !hasDN {
			malformedf("missing DP/DN record")
		}
	}
	defaultValue := readSigned(records, "DP", "DN")

	sd, ok := records["SD"]
	if !ok {
		malformedf("missing SD record")
	}
	shape := varBytesListDecode(sd)

	present := 0
	for _, k := range keysForEntries {
		if k == "CD" {
			if cd != nil {
				present++
			}
			continue
		}
		if _, ok := records[k]; ok {
			present++
		}
	}
	var entries []DataEntry
	switch {
	case present == 0:
		entries = []DataEntry{}
	case present == minEntriesKeys:
		entries = decodeEntries(records, cd, shape)
	default:
		malformedf("entries-present key count %d is neither 0 nor %d", present, minEntriesKeys)
	}

	userMetadata = make(map[string]string)
	for k, v := range records {
		if !reservedKeys[k] {
			userMetadata[k] = string(v)
		}
	}

	return CompressedList{Shape: shape, DefaultValue: defaultValue, Entries: entries}, userMetadata, nil
}

// readSigned decodes a value stored as one of a positive-key/negative-key
// pair, such as DP/DN or MP/MN, defaulting to 0 if neither is present.
func readSigned(records map[string][]byte, posKey, negKey string) int {
	if v, ok := records[posKey]; ok {
		return int(varBytesDecode(v))
	}
	if v, ok := records[negKey]; ok {
		return -int(varBytesDecode(v))
	}
	return 0
}

// decodeEntries rebuilds the dictionary and the entry stream, the inverse of
// buildDictionary/packDictionary/packEntries.
func decodeEntries(records map[string][]byte, cd []byte, shape []int) []DataEntry {
	minValue := readSigned(records, "MP", "MN")

	vc, ok := records["VC"]
	if !ok {
		malformedf("missing VC record")
	}
	valueCount := int(varBytesDecode(vc))
	if valueCount < 1 {
		malformedf("VC record %d is not a positive dictionary value count", valueCount)
	}

	drBytes, ok := records["DR"]
	if !ok {
		malformedf("missing DR record")
	}
	dbBytes, ok := records["DB"]
	if !ok {
		malformedf("missing DB record")
	}
	dr := int(varBytesDecode(drBytes))
	db := int(varBytesDecode(dbBytes))

	vd, ok := records["VD"]
	if !ok {
		malformedf("missing VD record")
	}
	ro, ok := records["RO"]
	if !ok {
		malformedf("missing RO record")
	}
	roPad := parseDecimal(string(ro), "RO")

	values := decodeDictionary(vd, roPad, dr, db, minValue, valueCount)

	as, ok := records["AS"]
	if !ok {
		malformedf("missing AS record")
	}
	sizes := varBytesListDecode(as)
	k := len(shape)
	if len(sizes) != 2*k {
		malformedf("AS record has %d sizes, want %d for a %d-axis shape", len(sizes), 2*k, k)
	}
	pathSizes, lengthSizes := sizes[:k], sizes[k:]

	do, ok := records["DO"]
	if !ok {
		malformedf("missing DO record")
	}
	doPad := parseDecimal(string(do), "DO")

	valueWidth := bitWidth(len(values))
	bits := bytesToBits(cd)
	if doPad < 0 || doPad > 7 || (len(bits)-doPad) < 0 {
		malformedf("invalid DO pad %d for a %d-bit entry stream", doPad, len(bits))
	}
	bits = bits[:len(bits)-doPad]

	var entries []DataEntry
	i := 0
	for i < len(bits) {
		var valueIndex uint64
		if valueWidth > 0 {
			valueIndex, i = readFixed(bits, valueWidth, i)
		}
		if int(valueIndex) >= len(values) {
			malformedf("value index %d out of range for %d dictionary values", valueIndex, len(values))
		}

		path := make([]int, k)
		for axis, w := range pathSizes {
			if w > 0 {
				var v uint64
				v, i = readFixed(bits, w, i)
				path[axis] = int(v)
			}
		}

		lengths := make([]int, k)
		for axis, w := range lengthSizes {
			if w > 0 {
				var v uint64
				v, i = readFixed(bits, w, i)
				lengths[axis] = int(v) + 1
			} else {
				lengths[axis] = 1
			}
		}

		entries = append(entries, DataEntry{Value: values[valueIndex], Path: path, Lengths: lengths})
	}
	return entries
}

// readFixed reads a w-bit big-endian unsigned field from bits at index i,
// returning the value and the index immediately past it.
func readFixed(bits []byte, w, i int) (uint64, int) {
	if i+w > len(bits) {
		malformedf("truncated fixed-width field at bit %d", i)
	}
	var v uint64
	for _, b := range bits[i : i+w] {
		v = v<<1 | uint64(b)
	}
	return v, i + w
}

// decodeDictionary expands the run-length-offset packed deltas back into the
// sorted list of distinct values, starting from minValue.
//
// The loop is bounded by valueCount (the VC record), not by the length of
// bits: when every pair has run 0 and offset 0 (every delta is 1), DR and DB
// are both 0 and the packed stream is zero bits long no matter how many
// pairs it represents, so bit length alone cannot tell decodeDictionary when
// to stop. valueCount is what makes that case unambiguous.
func decodeDictionary(vd []byte, roPad, dr, db, minValue, valueCount int) []int {
	bits := bytesToBits(vd)
	if roPad < 0 || roPad > 7 || (len(bits)-roPad) < 0 {
		malformedf("invalid RO pad %d for a %d-bit dictionary stream", roPad, len(bits))
	}
	bits = bits[:len(bits)-roPad]

	values := []int{minValue}
	current := minValue
	i := 0
	for len(values) < valueCount {
		var run, offset uint64
		if dr > 0 {
			run, i = readFixed(bits, dr, i)
		}
		if db > 0 {
			offset, i = readFixed(bits, db, i)
		}
		for rep := 0; rep < int(run)+1 && len(values) < valueCount; rep++ {
			current += int(offset) + 1
			values = append(values, current)
		}
	}
	return values
}

func parseDecimal(s, field string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		malformedf("%s record %q is not a decimal integer", field, s)
	}
	return n
}

// unframe splits a payload into its reserved+user records, stopping at the
// raw (unescaped) CD trailer if present. Every record up to CD is an
// escape(key)\x00escape(value) pair; CD's own key is escape-scanned like any
// other, but everything after its following \x00 is returned untouched as
// the entry-stream bytes, since that raw stream may itself contain 0x00 or
// 0x01 bytes that must not be mistaken for framing.
func unframe(data []byte) (map[string][]byte, []byte) {
	records := make(map[string][]byte)
	var cd []byte

	i := 0
	for i < len(data) {
		var keyRaw []byte
		keyRaw, i = scanToken(data, i)
		key := string(keyRaw)
		if key == "CD" {
			cd = data[i:]
			break
		}
		if i >= len(data) {
			malformedf("record %q has no value", key)
		}
		var valRaw []byte
		valRaw, i = scanToken(data, i)
		records[key] = valRaw
	}
	return records, cd
}

// scanToken reads one escape-aware token starting at start, up to the next
// unescaped 0x00 byte (exclusive) or the end of data, and returns its
// unescaped form along with the index just past the separator (or past the
// end of data, if none was found).
func scanToken(data []byte, start int) ([]byte, int) {
	i := start
	for i < len(data) {
		switch data[i] {
		case 0x01:
			i += 2
		case 0x00:
			return unescape(data[start:i]), i + 1
		default:
			i++
		}
	}
	return unescape(data[start:i]), i
}
