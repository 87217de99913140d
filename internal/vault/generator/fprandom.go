package generator

// GenerateFPRandom detects which of {upper, lower, digit} classes appear
// in value and draws replacement characters only from their union;
// punctuation is never part of the alphabet and input punctuation
// characters are dropped, along with any character outside the detected
// classes.
func GenerateFPRandom(rand RandBytes, value string, mask *string) (string, error) {
	var useUpper, useLower, useDigit bool
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'A' && c <= 'Z':
			useUpper = true
		case c >= 'a' && c <= 'z':
			useLower = true
		case c >= '0' && c <= '9':
			useDigit = true
		}
	}

	alphabet := alphabetFor(useUpper, useLower, useDigit, false)
	selector := classSelector(useUpper, useLower, useDigit, false)
	return generateClasses(rand, value, mask, alphabet, false, selector)
}
