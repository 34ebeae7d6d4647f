package assets

import (
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/frameflow/internal/cache"
)

// DefaultCapacity is the per-kind entry bound of a Store.
const DefaultCapacity = 128

// Store holds prepared assets by name, one LRU cache per kind.
//
// Thread safety: Store is safe for concurrent use.
type Store struct {
	shaders  *cache.Cache[string, *Shader]
	textures *cache.Cache[string, *Texture]
	fonts    *cache.Cache[string, *Font]

	// device destroys the modules of shaders leaving the store.
	// Set once by NewLoader before any task runs.
	device hal.Device
}

// NewStore creates a store keeping at most capacity assets of each kind.
// A capacity of 0 or less means unlimited.
func NewStore(capacity int) *Store {
	s := &Store{
		shaders:  cache.New[string, *Shader](capacity),
		textures: cache.New[string, *Texture](capacity),
		fonts:    cache.New[string, *Font](capacity),
	}
	s.shaders.OnEvict(func(_ string, sh *Shader) { s.releaseShader(sh) })
	return s
}

// releaseModules makes s destroy the HAL module of every shader that is
// evicted, replaced, deleted or cleared.
func (s *Store) releaseModules(dev hal.Device) {
	s.device = dev
}

func (s *Store) releaseShader(sh *Shader) {
	if s.device != nil && sh.Module != nil {
		s.device.DestroyShaderModule(sh.Module)
	}
}

// Shader returns the compiled shader registered under name.
func (s *Store) Shader(name string) (*Shader, bool) { return s.shaders.Get(name) }

// Texture returns the texture registered under name.
func (s *Store) Texture(name string) (*Texture, bool) { return s.textures.Get(name) }

// Font returns the font registered under name.
func (s *Store) Font(name string) (*Font, bool) { return s.fonts.Get(name) }

// PutShader registers sh under its name. The module of a replaced shader
// is destroyed.
func (s *Store) PutShader(sh *Shader) {
	if old, replaced := s.shaders.Set(sh.Name, sh); replaced && old != sh {
		s.releaseShader(old)
	}
}

// PutTexture registers t under its name, replacing any previous entry.
func (s *Store) PutTexture(t *Texture) { s.textures.Set(t.Name, t) }

// PutFont registers f under its name, replacing any previous entry.
func (s *Store) PutFont(f *Font) { s.fonts.Set(f.Name, f) }

// DeleteShader removes the named shader and destroys its module.
func (s *Store) DeleteShader(name string) bool {
	sh, ok := s.shaders.Delete(name)
	if ok {
		s.releaseShader(sh)
	}
	return ok
}

// DeleteTexture removes the named texture.
func (s *Store) DeleteTexture(name string) bool {
	_, ok := s.textures.Delete(name)
	return ok
}

// DeleteFont removes the named font.
func (s *Store) DeleteFont(name string) bool {
	_, ok := s.fonts.Delete(name)
	return ok
}

// Clear removes every asset and destroys every shader module.
func (s *Store) Clear() {
	s.shaders.Clear()
	s.textures.Clear()
	s.fonts.Clear()
}

// StoreStats summarizes a Store.
type StoreStats struct {
	Shaders, Textures, Fonts int

	// Capacity is the per-kind bound, 0 for unlimited.
	Capacity int

	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Stats returns the number of cached assets and the combined lookup counters.
func (s *Store) Stats() StoreStats {
	sh, tx, fn := s.shaders.Stats(), s.textures.Stats(), s.fonts.Stats()
	return StoreStats{
		Shaders:   sh.Len,
		Textures:  tx.Len,
		Fonts:     fn.Len,
		Capacity:  s.shaders.Capacity(),
		Hits:      sh.Hits + tx.Hits + fn.Hits,
		Misses:    sh.Misses + tx.Misses + fn.Misses,
		Evictions: sh.Evictions + tx.Evictions + fn.Evictions,
	}
}
