package gateway

import "fmt"

// MenuParseError is returned when the provider call for menu parsing fails
// or its output cannot be decoded.
type MenuParseError struct {
	Err error
}

func (e *MenuParseError) Error() string {
	return "Failed to parse the menu. Please check the format."
}

func (e *MenuParseError) Unwrap() error { return e.Err }

// GenerationError is returned when no usable image came back for a dish.
type GenerationError struct {
	Dish string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("Failed to generate an image for %s.", e.Dish)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// EditError is returned when an edit produced no image.
type EditError struct {
	Err error
}

func (e *EditError) Error() string {
	return "Failed to edit the image."
}

func (e *EditError) Unwrap() error { return e.Err }
