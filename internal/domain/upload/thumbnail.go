package upload

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const DefaultThumbnailSize = 300

// Thumbnailer derives bounded thumbnails from stored originals.
type Thumbnailer struct {
	layout Layout
	size   int
}

func NewThumbnailer(layout Layout, size int) *Thumbnailer {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	return &Thumbnailer{layout: layout, size: size}
}

// Generate fits srcPath inside a size×size box, keeping the aspect ratio and
// never enlarging, and writes it to <thumbnails>/thumb_<name>.
func (t *Thumbnailer) Generate(ctx context.Context, srcPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	filename := filepath.Base(srcPath)
	if err := checkFilename(filename); err != nil {
		return "", fmt.Errorf("%w: %q", err, srcPath)
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", ErrStorage, srcPath, err)
	}
	defer f.Close()

	// The encoder follows the decoded format, not the stored extension.
	_, formatName, err := image.DecodeConfig(f)
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %w", ErrAssetProcessing, filename, err)
	}
	format, err := imaging.FormatFromExtension(formatName)
	if err != nil {
		return "", fmt.Errorf("%w: encode %s: %w", ErrAssetProcessing, filename, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("%w: rewind %s: %w", ErrStorage, srcPath, err)
	}
	src, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %w", ErrAssetProcessing, filename, err)
	}

	// Fit returns a clone when the source already fits the box.
	thumb := imaging.Fit(src, t.size, t.size, imaging.Lanczos)

	dst := t.layout.ThumbnailPath(filename)
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %w", ErrStorage, dst, err)
	}
	encodeErr := imaging.Encode(out, thumb, format, imaging.JPEGQuality(85))
	closeErr := out.Close()
	if encodeErr != nil || closeErr != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("%w: write %s: %w", ErrStorage, dst, errors.Join(encodeErr, closeErr))
	}

	return dst, nil
}
