package cuboid

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestCompressToFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "array.cuboid")
	data := []any{ints(1, 2, 3), ints(4, 5, 255)}
	meta := map[string]string{"source": "test"}

	err := CompressToFile(path, data, meta)
	assert.NoError(t, err)

	got, gotMeta, err := DecompressFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, meta, gotMeta)
	if diff := cmp.Diff(data, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBytesToUTF8RoundTrip(t *testing.T) {
	for _, b := range [][]byte{
		{},
		{0x00, 0x01, 0x02},
		{0x7f, 0x80, 0xff},
		{0xde, 0xad, 0xbe, 0xef},
	} {
		encoded := bytesToUTF8(b)
		decoded, err := utf8ToBytes(encoded)
		assert.NoError(t, err)
		assert.Equal(t, b, decoded)
	}
}

func TestUtf8ToBytesRejectsInvalidUTF8(t *testing.T) {
	_, err := utf8ToBytes([]byte{0xff, 0xfe})
	assert.Error(t, err)
}
