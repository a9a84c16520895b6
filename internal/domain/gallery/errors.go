package gallery

import "errors"

var (
	ErrImageNotFound = errors.New("image not found")
	ErrFileRequired  = errors.New("image file is required")
)
