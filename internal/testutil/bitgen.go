// Package testutil provides fixture helpers for cuboid's tests.
package testutil

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	reBin = regexp.MustCompile(`^[01]{1,64}$`)
	reDec = regexp.MustCompile(`^D[0-9]+:[0-9]+$`)
	reHex = regexp.MustCompile(`^H[0-9]+:[0-9a-fA-F]{1,16}$`)
	reQnt = regexp.MustCompile(`[*][0-9]+$`)
)

// ParseBits decodes a BitGen-style token string into the package's
// one-byte-per-bit representation (a []byte of 0/1), always MSB-first, the
// way the format's own fixed-width fields are laid out.
//
// The string is a series of whitespace-separated tokens; "#" starts a
// line comment. A token is one of:
//
//   - a literal bit-string, e.g. "101101"
//   - "D<n>:<v>", the n-bit big-endian encoding of decimal value v
//   - "H<n>:<v>", the n-bit big-endian encoding of hexadecimal value v
//
// Any token may carry a trailing "*<k>" quantifier to repeat it k times.
//
// Example:
//
//	ParseBits("D3:5 101 H2:3*2") // -> 101 101 11 11
func ParseBits(str string) ([]byte, error) {
	var toks []string
	for _, line := range strings.Split(str, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, t := range strings.Fields(line) {
			toks = append(toks, t)
		}
	}

	var out []byte
	for _, t := range toks {
		rep := 1
		if reQnt.MatchString(t) {
			i := strings.LastIndexByte(t, '*')
			tt, tn := t[:i], t[i+1:]
			n, err := strconv.Atoi(tn)
			if err != nil {
				return nil, errors.New("testutil: invalid quantified token: " + t)
			}
			t, rep = tt, n
		}

		var bits []byte
		switch {
		case reBin.MatchString(t):
			bits = make([]byte, len(t))
			for i, c := range t {
				bits[i] = byte(c - '0')
			}
		case reDec.MatchString(t) || reHex.MatchString(t):
			i := strings.IndexByte(t, ':')
			base := 10
			if t[0] == 'H' {
				base = 16
			}
			n, err1 := strconv.Atoi(t[1:i])
			v, err2 := strconv.ParseUint(t[i+1:], base, 64)
			if err1 != nil || err2 != nil || n > 64 {
				return nil, errors.New("testutil: invalid numeric token: " + t)
			}
			if n < 64 && v>>uint(n) != 0 {
				return nil, errors.New("testutil: integer overflow on token: " + t)
			}
			bits = make([]byte, n)
			for i := 0; i < n; i++ {
				bits[n-1-i] = byte(v>>uint(i)) & 1
			}
		default:
			return nil, errors.New("testutil: invalid token: " + t)
		}

		for i := 0; i < rep; i++ {
			out = append(out, bits...)
		}
	}
	return out, nil
}

// MustParseBits is ParseBits for callers that already know the input is
// well-formed, such as table-driven test fixtures.
func MustParseBits(str string) []byte {
	b, err := ParseBits(str)
	if err != nil {
		panic(err)
	}
	return b
}
