// Package base32url encodes non-negative integers of any size as short,
// URL-safe base32 strings meant to be read and typed by people.
//
// This is not RFC 4648 base32. The alphabet is 0-9 and the lowercase letters
// without i, l, o and u. Decoding is case-insensitive, treats I and L as 1 and
// O as 0, and ignores hyphens. Encoded strings may carry a two digit
// ISO 7064 mod 97-10 checksum, zero padding and hyphen grouping.
package base32url

import (
	"errors"
	"math/big"
	"strings"
	"unicode/utf8"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// invalidSymbol replaces characters that cannot be decoded in Normalize.
const invalidSymbol = '?'

var decodeMap [128]int8

// digitMap translates big.Int base-32 digits into the alphabet.
var digitMap [128]byte

func init() {
	for i := range decodeMap {
		decodeMap[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		c := alphabet[i]
		decodeMap[c] = int8(i)
		if c >= 'a' && c <= 'z' {
			decodeMap[c-32] = int8(i)
		}
	}
	// Confusable substitutions. U stays invalid.
	decodeMap['I'] = 1
	decodeMap['i'] = 1
	decodeMap['L'] = 1
	decodeMap['l'] = 1
	decodeMap['O'] = 0
	decodeMap['o'] = 0

	const bigDigits = "0123456789abcdefghijklmnopqrstuv"
	for i := 0; i < len(bigDigits); i++ {
		digitMap[bigDigits[i]] = alphabet[i]
	}
}

var (
	// ErrInvalidEncoding is returned by Parse when a string contains characters
	// outside the alphabet or its checksum does not match.
	ErrInvalidEncoding = errors.New("base32url: invalid encoding")

	// ErrInvalidOptions is returned for negative lengths or split intervals and
	// for unknown keys in ParseOptions.
	ErrInvalidOptions = errors.New("base32url: invalid options")

	// ErrNegative is returned when encoding a nil or negative number.
	ErrNegative = errors.New("base32url: number must be non-negative")
)

var (
	bigHundred     = big.NewInt(100)
	bigNinetySeven = big.NewInt(97)
)

// Encode returns the base32url encoding of n.
//
//	Encode(big.NewInt(1234), Options{})                  // "16j"
//	Encode(big.NewInt(1234), Options{Length: 5, Split: 2}) // "0-01-6j"
func Encode(n *big.Int, opts Options) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	if n == nil || n.Sign() < 0 {
		return "", ErrNegative
	}

	buf := []byte(n.Text(32))
	for i, c := range buf {
		buf[i] = digitMap[c]
	}

	if opts.Checksum {
		c := checksum(n)
		buf = append(buf, '0'+c/10, '0'+c%10)
	}

	if pad := opts.Length - len(buf); pad > 0 {
		buf = append([]byte(strings.Repeat("0", pad)), buf...)
	}

	if opts.Split > 0 {
		return split(buf, opts.Split), nil
	}
	return string(buf), nil
}

// EncodeUint64 is Encode for a uint64.
func EncodeUint64(n uint64, opts Options) (string, error) {
	return Encode(new(big.Int).SetUint64(n), opts)
}

// split inserts a hyphen every n characters counting from the right.
func split(buf []byte, n int) string {
	var b strings.Builder
	b.Grow(len(buf) + len(buf)/n)
	head := len(buf) % n
	if head == 0 {
		head = n
	}
	b.Write(buf[:head])
	for i := head; i < len(buf); i += n {
		b.WriteByte('-')
		b.Write(buf[i : i+n])
	}
	return b.String()
}

// checksum returns 98 - (n*100 mod 97), always in [2, 98].
func checksum(n *big.Int) byte {
	r := new(big.Int).Mul(n, bigHundred)
	r.Mod(r, bigNinetySeven)
	return byte(98 - r.Int64())
}

// Decode parses s and returns its value, or nil if s contains characters
// that cannot be decoded or, with opts.Checksum, if the checksum is wrong.
// Length and Split are ignored.
func Decode(s string, opts Options) *big.Int {
	var claimed byte
	if opts.Checksum {
		var ok bool
		if s, claimed, ok = splitChecksum(s); !ok {
			return nil
		}
	}

	n := decode(clean(s))
	if n == nil {
		return nil
	}
	if opts.Checksum && checksum(n) != claimed {
		return nil
	}
	return n
}

// Parse is like Decode but returns ErrInvalidEncoding instead of nil.
func Parse(s string, opts Options) (*big.Int, error) {
	n := Decode(s, opts)
	if n == nil {
		return nil, ErrInvalidEncoding
	}
	return n, nil
}

// MustParse is like Parse but panics if s cannot be decoded.
func MustParse(s string, opts Options) *big.Int {
	n, err := Parse(s, opts)
	if err != nil {
		panic(err)
	}
	return n
}

// splitChecksum cuts the two trailing checksum digits off s.
func splitChecksum(s string) (string, byte, bool) {
	if len(s) < 2 {
		return "", 0, false
	}
	hi, lo := s[len(s)-2], s[len(s)-1]
	if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
		return "", 0, false
	}
	return s[:len(s)-2], (hi-'0')*10 + (lo - '0'), true
}

// decode reads a cleaned string as a big-endian base-32 number. Symbols are
// gathered twelve at a time into a machine word before touching the big.Int.
func decode(s string) *big.Int {
	const chunk = 12

	n := new(big.Int)
	word := new(big.Int)
	var acc uint64
	var k uint
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= utf8.RuneSelf {
			return nil
		}
		v := decodeMap[c]
		if v < 0 {
			return nil
		}
		acc = acc<<5 | uint64(v)
		k++
		if k == chunk {
			n.Lsh(n, 5*k).Or(n, word.SetUint64(acc))
			acc, k = 0, 0
		}
	}
	if k > 0 {
		n.Lsh(n, 5*k).Or(n, word.SetUint64(acc))
	}
	return n
}

// Normalize returns the canonical form of s: hyphens removed, lowercase, with
// confusable letters replaced by their digits and any character that cannot
// be decoded replaced by '?'. With opts.Checksum the last two characters of s
// are kept as they are.
func Normalize(s string, opts Options) string {
	var suffix string
	if opts.Checksum {
		cut := len(s)
		for i := 0; i < 2 && cut > 0; i++ {
			_, size := utf8.DecodeLastRuneInString(s[:cut])
			cut -= size
		}
		s, suffix = s[:cut], s[cut:]
	}

	s = clean(s)
	var b strings.Builder
	b.Grow(len(s) + len(suffix))
	for _, r := range s {
		if r < utf8.RuneSelf && decodeMap[r] >= 0 {
			b.WriteByte(alphabet[decodeMap[r]])
		} else {
			b.WriteRune(invalidSymbol)
		}
	}
	b.WriteString(suffix)
	return b.String()
}

// Valid reports whether every character of s, apart from the checksum digits
// when opts.Checksum is set, can be decoded. It does not verify the checksum;
// use Decode for that.
func Valid(s string, opts Options) bool {
	return !strings.ContainsRune(Normalize(s, opts), invalidSymbol)
}

// clean drops hyphens. Case folding is left to decodeMap so that only ASCII
// letters ever fold onto the alphabet.
func clean(s string) string {
	return strings.ReplaceAll(s, "-", "")
}
