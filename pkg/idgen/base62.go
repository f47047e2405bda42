package idgen

import (
	"math/bits"

	"github.com/pkg/errors"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const base = uint64(len(alphabet))

// Offset is added to every sequence number before encoding so that the
// smallest code is already 4 characters long. 62^3.
const Offset uint64 = 238328

const (
	// MinCodeLength is the length of Encode(0).
	MinCodeLength = 4
	// MaxCodeLength is the length of Encode(math.MaxUint64).
	MaxCodeLength = 11
)

var (
	ErrInvalidCharacter = errors.New("character outside base62 alphabet")
	ErrCodeLength       = errors.New("code length out of range")
	ErrCodeRange        = errors.New("code does not map to a sequence number")
)

var charIndex = func() [256]int8 {
	var m [256]int8
	for i := range m {
		m[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		m[alphabet[i]] = int8(i)
	}
	return m
}()

// Encode maps a sequence number to its code, most significant digit first.
// n+Offset is computed in 65 bits so Encode is defined for every uint64.
func Encode(n uint64) string {
	lo, hi := bits.Add64(n, Offset, 0)

	var buf [MaxCodeLength]byte
	i := len(buf)
	for hi > 0 || lo > 0 {
		var rem uint64
		hi, rem = hi/base, hi%base
		lo, rem = bits.Div64(rem, lo, base)
		i--
		buf[i] = alphabet[rem]
	}
	return string(buf[i:])
}

// Decode is the inverse of Encode.
func Decode(code string) (uint64, error) {
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return 0, errors.Wrapf(ErrCodeLength, "%q", code)
	}
	if code[0] == alphabet[0] {
		// Encode never emits a leading zero digit.
		return 0, errors.Wrapf(ErrCodeRange, "%q", code)
	}

	var hi, lo uint64
	for i := 0; i < len(code); i++ {
		d := charIndex[code[i]]
		if d < 0 {
			return 0, errors.Wrapf(ErrInvalidCharacter, "%q at %d", code[i], i)
		}
		// (hi,lo) = (hi,lo)*62 + d
		h1, l1 := bits.Mul64(lo, base)
		h1 += hi * base
		var carry uint64
		lo, carry = bits.Add64(l1, uint64(d), 0)
		hi = h1 + carry
		if hi > 1 {
			return 0, errors.Wrapf(ErrCodeRange, "%q", code)
		}
	}

	n, borrow := bits.Sub64(lo, Offset, 0)
	if hi != borrow {
		return 0, errors.Wrapf(ErrCodeRange, "%q", code)
	}
	return n, nil
}

// ValidShape reports whether code could have been produced by Encode,
// judged by length, alphabet and the absence of a leading zero.
func ValidShape(code string) bool {
	if len(code) < MinCodeLength || len(code) > MaxCodeLength || code[0] == alphabet[0] {
		return false
	}
	for i := 0; i < len(code); i++ {
		if charIndex[code[i]] < 0 {
			return false
		}
	}
	return true
}
