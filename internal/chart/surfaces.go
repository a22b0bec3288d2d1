package chart

import (
	"image"
	"sync"
)

// SurfaceCache stores surfaces by id. The TTL cache in infra/cache satisfies it.
type SurfaceCache interface {
	Get(key string) (*image.RGBA, bool)
	Set(key string, value *image.RGBA)
	Delete(key string)
}

// Surfaces hands out drawing surfaces keyed by a stable id, returning the
// existing one when it is already registered with the same size.
type Surfaces struct {
	mu      sync.Mutex
	cache   SurfaceCache
	created int
}

// NewSurfaces creates a registry backed by cache; a nil cache uses a plain map.
func NewSurfaces(cache SurfaceCache) *Surfaces {
	if cache == nil {
		cache = mapCache{}
	}
	return &Surfaces{cache: cache}
}

// Ensure returns the surface for id, allocating a w x h surface if none is
// registered or the registered one has another size.
func (s *Surfaces) Ensure(id string, w, h int) *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()

	if img, ok := s.cache.Get(id); ok && img.Bounds().Dx() == w && img.Bounds().Dy() == h {
		return img
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	s.cache.Set(id, img)
	s.created++
	return img
}

// Drop forgets the surface registered under id.
func (s *Surfaces) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(id)
}

// Created counts surfaces allocated so far.
func (s *Surfaces) Created() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created
}

type mapCache map[string]*image.RGBA

func (m mapCache) Get(key string) (*image.RGBA, bool) {
	img, ok := m[key]
	return img, ok
}

func (m mapCache) Set(key string, value *image.RGBA) {
	m[key] = value
}

func (m mapCache) Delete(key string) {
	delete(m, key)
}
