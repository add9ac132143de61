package studio

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"menugen-studio/internal/gallery"
	"menugen-studio/internal/imagedata"
	"menugen-studio/internal/style"
)

type source int

const (
	fromDescription source = iota
	fromReference
)

func (src source) String() string {
	if src == fromReference {
		return "reference"
	}
	return "description"
}

// job is one claimed image request waiting for its provider call.
type job struct {
	dish        gallery.Dish
	source      source
	style       style.ID
	edit        bool
	instruction string
}

// Generate renders the dish from its name and description in the current
// style and blocks until the provider answers.
func (s *Session) Generate(ctx context.Context, id string) (gallery.Dish, error) {
	j, err := s.claimGeneration(id, fromDescription)
	if err != nil {
		return j.dish, err
	}
	return s.run(ctx, j)
}

// Enhance restyles the dish's reference photo in the current style.
func (s *Session) Enhance(ctx context.Context, id string) (gallery.Dish, error) {
	j, err := s.claimGeneration(id, fromReference)
	if err != nil {
		return j.dish, err
	}
	return s.run(ctx, j)
}

// Edit applies instruction to the dish's generated image.
func (s *Session) Edit(ctx context.Context, id, instruction string) (gallery.Dish, error) {
	j, err := s.claimEdit(id, instruction)
	if err != nil {
		return j.dish, err
	}
	return s.run(ctx, j)
}

// StartGenerate claims the dish and runs Generate's provider call in the
// background. The returned dish already has IsGenerating set.
func (s *Session) StartGenerate(ctx context.Context, id string) (gallery.Dish, error) {
	j, err := s.claimGeneration(id, fromDescription)
	if err != nil {
		return j.dish, err
	}
	s.spawn(ctx, j)
	return j.dish, nil
}

func (s *Session) StartEnhance(ctx context.Context, id string) (gallery.Dish, error) {
	j, err := s.claimGeneration(id, fromReference)
	if err != nil {
		return j.dish, err
	}
	s.spawn(ctx, j)
	return j.dish, nil
}

func (s *Session) StartEdit(ctx context.Context, id, instruction string) (gallery.Dish, error) {
	j, err := s.claimEdit(id, instruction)
	if err != nil {
		return j.dish, err
	}
	s.spawn(ctx, j)
	return j.dish, nil
}

func (s *Session) claimGeneration(id string, src source) (job, error) {
	guard := func(d gallery.Dish) error {
		if d.Busy() {
			return ErrBusy
		}
		if src == fromReference && d.ReferenceImage == nil {
			return ErrNoReference
		}
		return nil
	}

	st := s.Style()
	d, err := s.gallery.PatchIf(id, guard, gallery.Patch{
		IsGenerating: gallery.Bool(true),
		Error:        gallery.String(""),
	})
	if err != nil {
		return job{dish: d}, err
	}
	s.pending.Add(1)
	s.publish()
	return job{dish: d, source: src, style: st}, nil
}

func (s *Session) claimEdit(id, instruction string) (job, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return job{}, ErrEmptyInstruction
	}

	guard := func(d gallery.Dish) error {
		if d.Busy() {
			return ErrBusy
		}
		if d.GeneratedImage == nil {
			return ErrNoImage
		}
		return nil
	}

	d, err := s.gallery.PatchIf(id, guard, gallery.Patch{
		IsEditing: gallery.Bool(true),
		Error:     gallery.String(""),
	})
	if err != nil {
		return job{dish: d}, err
	}
	s.pending.Add(1)
	s.publish()
	return job{dish: d, edit: true, instruction: instruction}, nil
}

// spawn finishes a claimed job on its own goroutine. The provider call is
// not tied to the caller's lifetime: once started it runs to completion.
func (s *Session) spawn(ctx context.Context, j job) {
	ctx = context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		_, _ = s.run(ctx, j)
	}()
}

func (s *Session) run(ctx context.Context, j job) (gallery.Dish, error) {
	defer s.pending.Add(-1)

	var (
		img imagedata.Image
		err error
	)
	switch {
	case j.edit:
		img, err = s.gw.EditImage(ctx, *j.dish.GeneratedImage, j.instruction)
	case j.source == fromReference:
		img, err = s.gw.GenerateFromReference(ctx, *j.dish.ReferenceImage, j.dish.Name, j.dish.Description, j.style)
	default:
		img, err = s.gw.GenerateFromDescription(ctx, j.dish.Name, j.dish.Description, j.style)
	}

	p := gallery.Patch{}
	if j.edit {
		p.IsEditing = gallery.Bool(false)
	} else {
		p.IsGenerating = gallery.Bool(false)
	}
	if err != nil {
		p.Error = gallery.String(err.Error())
	} else {
		p.GeneratedImage = &img
	}

	d, ok := s.gallery.Patch(j.dish.ID, p)
	s.publish()

	fields := []zap.Field{
		zap.String("dishID", j.dish.ID),
		zap.Bool("edit", j.edit),
		zap.Stringer("source", j.source),
		zap.String("style", string(j.style)),
	}
	if err != nil {
		s.log.Warn("Image request failed", append(fields, zap.Error(err))...)
		return d, err
	}
	if !ok {
		// The gallery was replaced while the request was outstanding.
		s.log.Info("Dropped image for a dish no longer in the gallery", fields...)
		return d, ErrNotFound
	}
	s.log.Info("Image request completed", fields...)
	return d, nil
}
