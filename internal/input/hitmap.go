package input

import "sync"

// Rect is a clickable area in 1-based terminal cells.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell at x, y falls inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

type region struct {
	key  string
	rect Rect
}

// HitMap translates clicks into key events. Later registrations win when
// regions overlap.
type HitMap struct {
	mu      sync.RWMutex
	regions []region
}

// NewHitMap returns an empty map.
func NewHitMap() *HitMap {
	return &HitMap{}
}

// Set registers a region for key, replacing an earlier one with the same key.
func (h *HitMap) Set(key string, r Rect) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.regions {
		if h.regions[i].key == key {
			h.regions = append(h.regions[:i], h.regions[i+1:]...)
			break
		}
	}
	h.regions = append(h.regions, region{key: key, rect: r})
}

// Remove drops the region for key.
func (h *HitMap) Remove(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.regions {
		if h.regions[i].key == key {
			h.regions = append(h.regions[:i], h.regions[i+1:]...)
			return
		}
	}
}

// Reset drops every region.
func (h *HitMap) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.regions = nil
}

// Lookup returns the key registered at x, y.
func (h *HitMap) Lookup(x, y int) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.regions) - 1; i >= 0; i-- {
		if h.regions[i].rect.Contains(x, y) {
			return h.regions[i].key, true
		}
	}
	return "", false
}

// Len returns the number of regions.
func (h *HitMap) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.regions)
}

// Get returns the region registered for key.
func (h *HitMap) Get(key string) (Rect, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, r := range h.regions {
		if r.key == key {
			return r.rect, true
		}
	}
	return Rect{}, false
}
