package upload

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("file type is not allowed")
	ErrPayloadTooLarge      = errors.New("file exceeds maximum allowed size")
	ErrEmptyFile            = errors.New("file is empty")
	ErrInvalidFilename      = errors.New("invalid stored filename")
	ErrAssetProcessing      = errors.New("thumbnail generation failed")
	ErrStorage              = errors.New("file storage failure")
)
