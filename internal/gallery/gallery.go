// Package gallery holds the ordered dish collection of one studio session.
//
// ReplaceAll, Clear and Patch/PatchIf are the only ways to change it. A
// Gallery is safe for concurrent use; patches to different dishes commute
// and overlapping patches to the same dish are last-write-wins.
package gallery

import (
	"fmt"
	"sync"
	"time"

	"menugen-studio/internal/imagedata"
)

type Dish struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	ReferenceImage *imagedata.Image `json:"reference_image,omitempty"`
	GeneratedImage *imagedata.Image `json:"generated_image,omitempty"`
	IsGenerating   bool             `json:"is_generating"`
	IsEditing      bool             `json:"is_editing"`
	Error          string           `json:"error,omitempty"`
}

// Empty reports whether the dish has neither a reference nor a generated image.
func (d Dish) Empty() bool {
	return d.ReferenceImage == nil && d.GeneratedImage == nil
}

// Busy reports whether a provider call for the dish is outstanding.
func (d Dish) Busy() bool {
	return d.IsGenerating || d.IsEditing
}

// Item is the input for a fresh dish.
type Item struct {
	Name        string
	Description string
}

// Patch lists the fields to merge into a dish. Nil pointers and false
// Clear flags leave the corresponding field untouched.
type Patch struct {
	Name           *string
	Description    *string
	IsGenerating   *bool
	IsEditing      *bool
	Error          *string
	ReferenceImage *imagedata.Image
	GeneratedImage *imagedata.Image
	ClearReference bool
	ClearGenerated bool
}

func (p Patch) apply(d *Dish) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.IsGenerating != nil {
		d.IsGenerating = *p.IsGenerating
	}
	if p.IsEditing != nil {
		d.IsEditing = *p.IsEditing
	}
	if p.Error != nil {
		d.Error = *p.Error
	}
	if p.ClearReference {
		d.ReferenceImage = nil
	}
	if p.ClearGenerated {
		d.GeneratedImage = nil
	}
	if p.ReferenceImage != nil {
		img := *p.ReferenceImage
		d.ReferenceImage = &img
	}
	if p.GeneratedImage != nil {
		img := *p.GeneratedImage
		d.GeneratedImage = &img
	}
}

// Guard inspects the current dish and returns a non-nil error to veto a
// conditional patch.
type Guard func(Dish) error

type Gallery struct {
	mu        sync.RWMutex
	dishes    []Dish
	lastStamp int64
	now       func() time.Time
}

func New() *Gallery {
	return &Gallery{now: time.Now}
}

// ReplaceAll discards the current dishes and installs one fresh dish per
// item. IDs combine a millisecond stamp, strictly increasing across calls,
// with the item index.
func (g *Gallery) ReplaceAll(items []Item) []Dish {
	g.mu.Lock()
	defer g.mu.Unlock()

	stamp := g.now().UnixMilli()
	if stamp <= g.lastStamp {
		stamp = g.lastStamp + 1
	}
	g.lastStamp = stamp

	g.dishes = make([]Dish, len(items))
	for i, it := range items {
		g.dishes[i] = Dish{
			ID:          fmt.Sprintf("%d-%d", stamp, i),
			Name:        it.Name,
			Description: it.Description,
		}
	}
	return cloneAll(g.dishes)
}

func (g *Gallery) Clear() {
	g.mu.Lock()
	g.dishes = nil
	g.mu.Unlock()
}

// Patch merges p into the dish with the given id. It reports false, and
// changes nothing, when no such dish exists.
func (g *Gallery) Patch(id string, p Patch) (Dish, bool) {
	d, err := g.PatchIf(id, nil, p)
	return d, err == nil
}

// PatchIf applies p only when guard accepts the current dish. It returns
// ErrNotFound for unknown ids and the guard's error on veto.
func (g *Gallery) PatchIf(id string, guard Guard, p Patch) (Dish, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.dishes {
		if g.dishes[i].ID != id {
			continue
		}
		if guard != nil {
			if err := guard(clone(g.dishes[i])); err != nil {
				return clone(g.dishes[i]), err
			}
		}
		p.apply(&g.dishes[i])
		return clone(g.dishes[i]), nil
	}
	return Dish{}, ErrNotFound
}

func (g *Gallery) Get(id string) (Dish, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, d := range g.dishes {
		if d.ID == id {
			return clone(d), true
		}
	}
	return Dish{}, false
}

// List returns a snapshot of the dishes in menu order.
func (g *Gallery) List() []Dish {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return cloneAll(g.dishes)
}

func (g *Gallery) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.dishes)
}

// clone copies the image headers so callers never share them with the
// gallery. Image bytes are never mutated in place and stay shared.
func clone(d Dish) Dish {
	if d.ReferenceImage != nil {
		img := *d.ReferenceImage
		d.ReferenceImage = &img
	}
	if d.GeneratedImage != nil {
		img := *d.GeneratedImage
		d.GeneratedImage = &img
	}
	return d
}

func cloneAll(ds []Dish) []Dish {
	out := make([]Dish, len(ds))
	for i, d := range ds {
		out[i] = clone(d)
	}
	return out
}

func Bool(v bool) *bool { return &v }

func String(v string) *string { return &v }
