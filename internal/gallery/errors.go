package gallery

import "errors"

var ErrNotFound = errors.New("dish not found")
