package generator

import (
	"fmt"
	"sync"

	"github.com/tcsantanello/tokengov/internal/vault/domain"
)

// Registry is a process-wide, read/write-locked mapping from format id to
// generator function. Registrations are idempotent-on-conflict-rejected:
// Register returns false instead of overwriting an existing entry.
//
// Generators are pure functions; they take no other core lock. Generate
// releases the registry's read lock before it invokes the generator.
type Registry struct {
	mu    sync.RWMutex
	funcs map[domain.Format]Func
}

// NewRegistry returns an empty registry. Use RegisterBuiltins to populate
// it with the 12 required format ids.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[domain.Format]Func)}
}

// Register inserts fn for format id if none is already registered.
// Returns false on conflict; the existing registration is left in place.
func (r *Registry) Register(id domain.Format, fn Func) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[id]; exists {
		return false
	}
	r.funcs[id] = fn
	return true
}

// Generate looks up the generator for format id and invokes it.
func (r *Registry) Generate(id domain.Format, rand RandBytes, value string, mask *string) (string, error) {
	r.mu.RLock()
	fn, ok := r.funcs[id]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: no generator registered for format %s", domain.ErrInvalidTokenFormat, id)
	}
	return fn(rand, value, mask)
}

// RegisterBuiltins registers the 12 required built-in formats, mirroring
// the original GeneratorMap bootstrap. It never overwrites an already
// registered id, so it is safe to call on a registry that already carries
// custom registrations.
func (r *Registry) RegisterBuiltins() {
	r.Register(domain.FormatRandom, GenerateRandomClasses(true, true, true, true))
	r.Register(domain.FormatFPRandom, GenerateFPRandom)
	r.Register(domain.FormatDate, GenerateFilteredClasses(false, false, true, false))
	r.Register(domain.FormatEmail, GenerateFilteredClasses(true, true, false, false))

	r.Register(domain.FormatL4, GeneratePreserved(0, 4, true))
	r.Register(domain.FormatF6, GeneratePreserved(6, 0, true))
	r.Register(domain.FormatF2L4, GeneratePreserved(2, 4, true))
	r.Register(domain.FormatF6L4, GeneratePreserved(6, 4, true))

	r.Register(domain.FormatL4NoLuhn, GeneratePreserved(0, 4, false))
	r.Register(domain.FormatF6NoLuhn, GeneratePreserved(6, 0, false))
	r.Register(domain.FormatF2L4NoLuhn, GeneratePreserved(2, 4, false))
	r.Register(domain.FormatF6L4NoLuhn, GeneratePreserved(6, 4, false))
}

// Default is the process-wide registry used by the manager when no
// alternate registry is supplied. generator_register in spec.md §4.1
// operates on this instance.
var Default = NewRegistry()

func init() {
	Default.RegisterBuiltins()
}
