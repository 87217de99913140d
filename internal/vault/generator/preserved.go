package generator

import (
	"fmt"
	"strings"

	"github.com/tcsantanello/tokengov/internal/vault/domain"
)

// maxPreservedAttempts bounds the Luhn-acceptance retry loop. The
// original has no explicit cap since a candidate is accepted roughly
// every other draw; this is a generous backstop against a pathological
// randomness source that never produces the desired parity.
const maxPreservedAttempts = 10000

// GeneratePreserved returns a Func that preserves the first front and
// last back characters of value, fills the middle with random digits,
// and retries the middle until the full candidate's Luhn check equals
// passLuhn.
func GeneratePreserved(front, back int, passLuhn bool) Func {
	return func(rand RandBytes, value string, mask *string) (string, error) {
		if front+back >= len(value) {
			return "", fmt.Errorf(
				"%w: preserved prefix/suffix (%d/%d) meet or exceed value length %d",
				domain.ErrTokenRange, front, back, len(value),
			)
		}

		prefix := value[:front]
		suffix := value[len(value)-back:]
		middleLen := len(value) - front - back

		if mask != nil {
			*mask = prefix + strings.Repeat("*", middleLen) + suffix
		}

		drawer := newByteDrawer(rand)
		for attempt := 0; attempt < maxPreservedAttempts; attempt++ {
			var middle strings.Builder
			for i := 0; i < middleLen; i++ {
				b, err := drawer.next()
				if err != nil {
					return "", fmt.Errorf("%w: %v", domain.ErrTokenGeneration, err)
				}
				middle.WriteByte(numerics[int(b)%len(numerics)])
			}
			candidate := prefix + middle.String() + suffix
			if luhnValid(candidate) == passLuhn {
				return candidate, nil
			}
		}

		return "", fmt.Errorf("%w: exhausted %d attempts seeking luhn=%v", domain.ErrTokenGeneration, maxPreservedAttempts, passLuhn)
	}
}
