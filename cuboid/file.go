package cuboid

import (
	"os"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// CompressToFile compresses data, serialises it together with userMetadata,
// and writes the result to path using the byte-as-rune text encoding scheme
// described below, so the file round-trips through strict UTF-8 text
// pipelines the way the reference implementation's output does.
func CompressToFile(path string, data any, userMetadata map[string]string) error {
	cl, err := Compress(data)
	if err != nil {
		return errors.Wrap(err, "cuboid: compress")
	}
	payload := Serialise(cl, userMetadata)
	if err := os.WriteFile(path, bytesToUTF8(payload), 0o644); err != nil {
		return errors.Wrap(err, "cuboid: write file")
	}
	return nil
}

// DecompressFromFile reads path, decodes it from the byte-as-rune encoding,
// deserialises the payload, and decompresses it.
func DecompressFromFile(path string) (data any, userMetadata map[string]string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cuboid: read file")
	}
	payload, err := utf8ToBytes(raw)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cuboid: decode file")
	}
	cl, userMetadata, err := Deserialise(payload)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cuboid: deserialise")
	}
	return Decompress(cl), userMetadata, nil
}

// DecodeFileBytes decodes raw file bytes previously produced by
// CompressToFile's byte-as-rune encoding, returning the underlying
// serialised payload without deserialising it. Useful for tools that want
// to inspect a file's records without decompressing the array itself.
func DecodeFileBytes(raw []byte) ([]byte, error) {
	return utf8ToBytes(raw)
}

// bytesToUTF8 encodes each byte of b as the rune of that codepoint, via
// utf8.EncodeRune, so an arbitrary byte string round-trips through text
// layers that assume valid UTF-8 without ever emitting an invalid sequence:
// every byte value 0-255 is a valid Unicode scalar value on its own.
func bytesToUTF8(b []byte) []byte {
	out := make([]byte, 0, len(b)*2)
	var buf [utf8.UTFMax]byte
	for _, v := range b {
		n := utf8.EncodeRune(buf[:], rune(v))
		out = append(out, buf[:n]...)
	}
	return out
}

// utf8ToBytes is the inverse of bytesToUTF8: it decodes each rune of s and
// reconstructs the original byte for it. It fails if s is not valid UTF-8 or
// any decoded rune falls outside a single byte's range.
func utf8ToBytes(s []byte) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRune(s)
		if r == utf8.RuneError && size <= 1 {
			return nil, errors.New("invalid UTF-8 in compressed file")
		}
		if r > 0xff {
			return nil, errors.Errorf("rune %U out of byte range", r)
		}
		out = append(out, byte(r))
		s = s[size:]
	}
	return out, nil
}
