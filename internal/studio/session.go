// Package studio turns user intents into gateway calls and folds the
// results back into a session's gallery.
package studio

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"menugen-studio/internal/gallery"
	"menugen-studio/internal/gateway"
	"menugen-studio/internal/imagedata"
	"menugen-studio/internal/style"
)

// Gateway is the provider surface a session needs. *gateway.Gateway
// implements it.
type Gateway interface {
	ParseMenu(ctx context.Context, menuText string) ([]gateway.MenuItem, error)
	GenerateFromDescription(ctx context.Context, name, description string, id style.ID) (imagedata.Image, error)
	GenerateFromReference(ctx context.Context, ref imagedata.Image, name, description string, id style.ID) (imagedata.Image, error)
	EditImage(ctx context.Context, img imagedata.Image, instruction string) (imagedata.Image, error)
}

// Snapshot is the full view state pushed to subscribers after every change.
type Snapshot struct {
	Style  style.ID       `json:"style"`
	Dishes []gallery.Dish `json:"dishes"`
}

type Session struct {
	ID string

	gw      Gateway
	gallery *gallery.Gallery
	log     *zap.Logger

	mu    sync.RWMutex
	style style.ID

	parsing  atomic.Bool
	lastSeen atomic.Int64
	inflight sync.WaitGroup
	pending  atomic.Int64

	subMu   sync.Mutex
	nextSub int
	subs    map[int]chan Snapshot
}

func NewSession(id string, gw Gateway, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		ID:      id,
		gw:      gw,
		gallery: gallery.New(),
		log:     log.With(zap.String("session", id)),
		style:   style.Default,
		subs:    make(map[int]chan Snapshot),
	}
	s.touch()
	return s
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Active reports whether a parse or image request is still outstanding.
func (s *Session) Active() bool {
	return s.parsing.Load() || s.pending.Load() > 0
}

// Wait blocks until every background image request has finished.
func (s *Session) Wait() {
	s.inflight.Wait()
}

func (s *Session) Style() style.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.style
}

// SelectStyle changes the style used by every later generation request.
func (s *Session) SelectStyle(id style.ID) error {
	if _, ok := style.Lookup(id); !ok {
		return ErrUnknownStyle
	}
	s.mu.Lock()
	s.style = id
	s.mu.Unlock()
	s.publish()
	return nil
}

func (s *Session) Dishes() []gallery.Dish {
	return s.gallery.List()
}

func (s *Session) Dish(id string) (gallery.Dish, error) {
	d, ok := s.gallery.Get(id)
	if !ok {
		return gallery.Dish{}, ErrNotFound
	}
	return d, nil
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{Style: s.Style(), Dishes: s.gallery.List()}
}

// ParseMenu replaces the gallery with the dishes found in text. Blank text
// is rejected before any provider call. On failure the gallery is left
// empty.
func (s *Session) ParseMenu(ctx context.Context, text string) ([]gallery.Dish, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMenu
	}
	if !s.parsing.CompareAndSwap(false, true) {
		return nil, ErrParseInProgress
	}
	defer s.parsing.Store(false)

	s.gallery.Clear()
	s.publish()

	items, err := s.gw.ParseMenu(ctx, text)
	if err != nil {
		s.gallery.Clear()
		s.publish()
		return nil, err
	}

	fresh := make([]gallery.Item, len(items))
	for i, it := range items {
		fresh[i] = gallery.Item{Name: it.Name, Description: it.Description}
	}
	dishes := s.gallery.ReplaceAll(fresh)
	s.publish()

	s.log.Info("Gallery replaced", zap.Int("dishes", len(dishes)))
	return dishes, nil
}

func idle(d gallery.Dish) error {
	if d.Busy() {
		return ErrBusy
	}
	return nil
}

// AttachReference stores a user photo as the dish's reference image.
func (s *Session) AttachReference(id string, img imagedata.Image) (gallery.Dish, error) {
	d, err := s.gallery.PatchIf(id, idle, gallery.Patch{ReferenceImage: &img, Error: gallery.String("")})
	if err != nil {
		return d, err
	}
	s.publish()
	return d, nil
}

// RemoveReference discards the reference photo together with any image
// generated from it, returning the dish to its empty state.
func (s *Session) RemoveReference(id string) (gallery.Dish, error) {
	d, err := s.gallery.PatchIf(id, idle, gallery.Patch{
		ClearReference: true,
		ClearGenerated: true,
		Error:          gallery.String(""),
	})
	if err != nil {
		return d, err
	}
	s.publish()
	return d, nil
}

// Download returns the dish's current generated image and a file name for it.
func (s *Session) Download(id string) (imagedata.Image, string, error) {
	d, ok := s.gallery.Get(id)
	if !ok {
		return imagedata.Image{}, "", ErrNotFound
	}
	if d.GeneratedImage == nil {
		return imagedata.Image{}, "", ErrNoImage
	}
	name := strings.Join(strings.Fields(d.Name), "_")
	if name == "" {
		name = "dish"
	}
	return *d.GeneratedImage, name + d.GeneratedImage.Extension(), nil
}
