package local

import (
	"crypto/rand"
	"sync"

	"github.com/tcsantanello/tokengov/internal/vault/crypto"
)

// Provider resolves named EncKey/MacKey handles from an in-memory table.
// It is safe for concurrent registration and lookup.
type Provider struct {
	mu      sync.RWMutex
	encKeys map[string]crypto.EncKey
	macKeys map[string]crypto.MacKey
}

// NewProvider returns an empty Provider; callers register keys with
// RegisterEncKey/RegisterMacKey before use.
func NewProvider() *Provider {
	return &Provider{
		encKeys: make(map[string]crypto.EncKey),
		macKeys: make(map[string]crypto.MacKey),
	}
}

// RegisterEncKey makes key resolvable by name.
func (p *Provider) RegisterEncKey(name string, key crypto.EncKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.encKeys[name] = key
}

// RegisterMacKey makes key resolvable by name.
func (p *Provider) RegisterMacKey(name string, key crypto.MacKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.macKeys[name] = key
}

// GetEncKey implements crypto.Provider. A nil, nil result means "no such key".
func (p *Provider) GetEncKey(name string) (crypto.EncKey, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.encKeys[name], nil
}

// GetMacKey implements crypto.Provider.
func (p *Provider) GetMacKey(name string) (crypto.MacKey, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.macKeys[name], nil
}

// Random implements crypto.Provider using crypto/rand.
func (p *Provider) Random(buf []byte) error {
	_, err := rand.Read(buf)
	return err
}
