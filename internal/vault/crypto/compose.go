package crypto

// Compose tries each Provider in order and returns the first non-nil key
// or randomness source. It lets a deployment pair, e.g., a gocloud.dev
// secrets-backed EncKey provider with a local MAC-key provider under a
// single Provider value.
type Compose []Provider

func (c Compose) GetEncKey(name string) (EncKey, error) {
	for _, p := range c {
		key, err := p.GetEncKey(name)
		if err != nil {
			return nil, err
		}
		if key != nil {
			return key, nil
		}
	}
	return nil, nil
}

func (c Compose) GetMacKey(name string) (MacKey, error) {
	for _, p := range c {
		key, err := p.GetMacKey(name)
		if err != nil {
			return nil, err
		}
		if key != nil {
			return key, nil
		}
	}
	return nil, nil
}

func (c Compose) Random(buf []byte) error {
	var lastErr error
	for _, p := range c {
		if err := p.Random(buf); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return lastErr
}
