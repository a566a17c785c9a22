package cuboid

import (
	"errors"
	"testing"
)

// FuzzSerialiseDeserialise exercises Deserialise directly against arbitrary
// bytes: it must never panic, only ever return a normal error for malformed
// input (IsMalformed, or *VersionMismatchError for a foreign VN record).
func FuzzSerialiseDeserialise(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte("VN\x00"))
	f.Add([]byte("garbage"))

	cl, err := Compress([]any{ints(1, 2, 3), ints(4, 5, 6)})
	if err == nil {
		f.Add(Serialise(cl, map[string]string{"note": "seed"}))
	}

	// Two surviving distinct values one apart: the degenerate run-length-
	// offset dictionary whose packed bits are empty no matter how many
	// values it holds.
	if cl, err := Compress(ints(0, 0, 2, 3)); err == nil {
		f.Add(Serialise(cl, nil))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		cl, meta, err := Deserialise(data)
		if err != nil {
			var verErr *VersionMismatchError
			if !IsMalformed(err) && !errors.As(err, &verErr) {
				t.Fatalf("Deserialise returned a non-malformed error: %v", err)
			}
			return
		}
		// A successful parse must itself be re-serialisable and re-parse
		// to a CompressedList with the same default value and entry count.
		payload := Serialise(cl, meta)
		cl2, meta2, err := Deserialise(payload)
		if err != nil {
			t.Fatalf("re-serialised payload failed to deserialise: %v", err)
		}
		if len(cl.Entries) != len(cl2.Entries) || cl.DefaultValue != cl2.DefaultValue {
			t.Fatalf("round trip mismatch: %+v vs %+v", cl, cl2)
		}
		if len(meta) != len(meta2) {
			t.Fatalf("user metadata round trip mismatch: %v vs %v", meta, meta2)
		}
	})
}

// FuzzCompressDecompress exercises the core pipeline, including the
// Serialise/Deserialise wire format, against procedurally generated
// rectangular arrays, checking both round trips hold for every shape the
// generator produces.
func FuzzCompressDecompress(f *testing.F) {
	f.Add(2, 3, 3)
	f.Add(1, 1, 1)
	f.Add(4, 1, 2)

	f.Fuzz(func(t *testing.T, rows, cols, mod int) {
		if rows <= 0 || cols <= 0 {
			t.Skip()
		}
		if rows > 20 || cols > 20 {
			t.Skip()
		}
		if mod <= 0 {
			mod = 1
		}
		data := make([]any, rows)
		for r := 0; r < rows; r++ {
			row := make([]any, cols)
			for c := 0; c < cols; c++ {
				row[c] = (r*cols + c) % mod
			}
			data[r] = row
		}

		cl, err := Compress(data)
		if err != nil {
			t.Fatalf("Compress failed on a well-formed array: %v", err)
		}

		payload := Serialise(cl, nil)
		cl2, _, err := Deserialise(payload)
		if err != nil {
			t.Fatalf("Deserialise failed on a Serialise payload: %v", err)
		}
		if len(cl.Entries) != len(cl2.Entries) || cl.DefaultValue != cl2.DefaultValue {
			t.Fatalf("Serialise/Deserialise round trip mismatch: %+v vs %+v", cl, cl2)
		}

		got := Decompress(cl2)
		gotRows, ok := got.([]any)
		if !ok || len(gotRows) != rows {
			t.Fatalf("shape mismatch after round trip")
		}
		for r := 0; r < rows; r++ {
			gotRow, ok := gotRows[r].([]any)
			if !ok || len(gotRow) != cols {
				t.Fatalf("row %d shape mismatch after round trip", r)
			}
			for c := 0; c < cols; c++ {
				want := (r*cols + c) % mod
				if gotRow[c].(int) != want {
					t.Fatalf("cell (%d,%d): got %v, want %d", r, c, gotRow[c], want)
				}
			}
		}
	})
}
