package domain

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// SerializeProperties encodes a string->string mapping as CBOR of a
// single-element array containing the mapping ("[{...}]"). This wrapping
// is a legacy wire-format requirement preserved for backward
// compatibility; it is not how a fresh design would encode a map, but
// downstream consumers depend on the extra array layer.
func SerializeProperties(m map[string]string) ([]byte, error) {
	if m == nil {
		m = map[string]string{}
	}
	b, err := cbor.Marshal([1]map[string]string{m})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding properties: %v", ErrStorage, err)
	}
	return b, nil
}

// DeserializeProperties reverses SerializeProperties, reading the mapping
// at index 0 of the outer array. An empty input decodes to an empty map.
func DeserializeProperties(b []byte) (map[string]string, error) {
	if len(b) == 0 {
		return map[string]string{}, nil
	}
	var wrapper [1]map[string]string
	if err := cbor.Unmarshal(b, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: decoding properties: %v", ErrStorage, err)
	}
	if wrapper[0] == nil {
		return map[string]string{}, nil
	}
	return wrapper[0], nil
}
