package upload

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	imagesDirName     = "images"
	thumbnailsDirName = "thumbnails"
)

// Layout is the on-disk arrangement of the upload root.
type Layout struct {
	Root          string
	ImagesDir     string
	ThumbnailsDir string
}

func NewLayout(root string) Layout {
	return Layout{
		Root:          root,
		ImagesDir:     filepath.Join(root, imagesDirName),
		ThumbnailsDir: filepath.Join(root, thumbnailsDirName),
	}
}

// Ensure creates the root and both subdirectories. Safe to call repeatedly.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.Root, l.ImagesDir, l.ThumbnailsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create %s: %w", ErrStorage, dir, err)
		}
	}
	return nil
}

func (l Layout) ImagePath(filename string) string {
	return filepath.Join(l.ImagesDir, filename)
}

func (l Layout) ThumbnailPath(filename string) string {
	return filepath.Join(l.ThumbnailsDir, ThumbnailName(filename))
}
