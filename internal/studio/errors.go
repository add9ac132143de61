package studio

import (
	"errors"

	"menugen-studio/internal/gallery"
)

var (
	ErrEmptyMenu        = errors.New("Please paste your menu first.")
	ErrParseInProgress  = errors.New("a menu is already being parsed")
	ErrEmptyInstruction = errors.New("Please describe the edit to apply.")
	ErrBusy             = errors.New("an image request for this dish is already in progress")
	ErrNoReference      = errors.New("dish has no reference image")
	ErrNoImage          = errors.New("dish has no generated image")
	ErrUnknownStyle     = errors.New("unknown style")
	ErrNotFound         = gallery.ErrNotFound
)
