package generator

import (
	"fmt"
	"strings"

	"github.com/tcsantanello/tokengov/internal/vault/domain"
)

const (
	numerics = "0123456789"
	upper    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lower    = "abcdefghijklmnopqrstuvwxyz"
	punct    = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// maxGenerationAttempts bounds the classes-variant regeneration loop: the
// whole draw is retried if the candidate equals the input verbatim.
const maxGenerationAttempts = 3

// drawBlockSize is how many random bytes are pulled at a time before
// refilling, matching the original's 256-byte blocks.
const drawBlockSize = 256

// alphabetFor concatenates the selected class strings in a fixed order.
func alphabetFor(useUpper, useLower, useDigit, usePunct bool) string {
	var b strings.Builder
	if useUpper {
		b.WriteString(upper)
	}
	if useLower {
		b.WriteString(lower)
	}
	if useDigit {
		b.WriteString(numerics)
	}
	if usePunct {
		b.WriteString(punct)
	}
	return b.String()
}

// classSelector reports whether a byte belongs to one of the selected
// classes, used to decide which input characters survive into the output
// for the filtered (drop-unmatched) variants.
func classSelector(useUpper, useLower, useDigit, usePunct bool) func(byte) bool {
	return func(c byte) bool {
		if useUpper && c >= 'A' && c <= 'Z' {
			return true
		}
		if useLower && c >= 'a' && c <= 'z' {
			return true
		}
		if useDigit && c >= '0' && c <= '9' {
			return true
		}
		if usePunct && strings.IndexByte(punct, c) >= 0 {
			return true
		}
		return false
	}
}

// byteDrawer pulls random bytes from rand in drawBlockSize chunks,
// refilling transparently as the caller consumes them.
type byteDrawer struct {
	rand RandBytes
	buf  []byte
	pos  int
}

func newByteDrawer(rand RandBytes) *byteDrawer {
	return &byteDrawer{rand: rand, buf: make([]byte, drawBlockSize), pos: drawBlockSize}
}

func (d *byteDrawer) next() (byte, error) {
	if d.pos >= len(d.buf) {
		if err := d.rand(d.buf); err != nil {
			return 0, err
		}
		d.pos = 0
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// generateClasses implements the classes-variant algorithm shared by
// RANDOM, DATE, EMAIL and (with a per-call alphabet) FP_RANDOM: for every
// input character that passes select, draw a random byte and emit
// alphabet[b % len(alphabet)]; characters that don't pass select are
// dropped from the output. The whole draw is retried up to
// maxGenerationAttempts times if the result equals the input verbatim.
func generateClasses(rand RandBytes, value string, mask *string, alphabet string, selectAll bool, selector func(byte) bool) (string, error) {
	if mask != nil {
		*mask = strings.Repeat("*", len(value))
	}
	if alphabet == "" {
		return "", fmt.Errorf("%w: empty alphabet for token generation", domain.ErrTokenGeneration)
	}

	for attempt := 0; attempt < maxGenerationAttempts; attempt++ {
		drawer := newByteDrawer(rand)
		var out strings.Builder
		for i := 0; i < len(value); i++ {
			if !selectAll && !selector(value[i]) {
				continue
			}
			b, err := drawer.next()
			if err != nil {
				return "", fmt.Errorf("%w: %v", domain.ErrTokenGeneration, err)
			}
			out.WriteByte(alphabet[int(b)%len(alphabet)])
		}
		candidate := out.String()
		if candidate != value {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: exhausted %d attempts", domain.ErrTokenGeneration, maxGenerationAttempts)
}

// GenerateRandomClasses returns a Func replacing every input character
// (selectAll) with a random character from the given classes. Used for
// RANDOM (all four classes) and as the building block for the fixed-class
// filtered variants below.
func GenerateRandomClasses(useUpper, useLower, useDigit, usePunct bool) Func {
	alphabet := alphabetFor(useUpper, useLower, useDigit, usePunct)
	return func(rand RandBytes, value string, mask *string) (string, error) {
		return generateClasses(rand, value, mask, alphabet, true, nil)
	}
}

// GenerateFilteredClasses returns a Func that only replaces input
// characters belonging to the given classes, dropping the rest. Used for
// DATE (digits only) and EMAIL (letters only).
func GenerateFilteredClasses(useUpper, useLower, useDigit, usePunct bool) Func {
	alphabet := alphabetFor(useUpper, useLower, useDigit, usePunct)
	selector := classSelector(useUpper, useLower, useDigit, usePunct)
	return func(rand RandBytes, value string, mask *string) (string, error) {
		return generateClasses(rand, value, mask, alphabet, false, selector)
	}
}
