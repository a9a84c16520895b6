package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Incoming is a client file as declared by the request.
type Incoming struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// StoredAsset is an original written under the images directory.
type StoredAsset struct {
	Filename string
	Path     string
}

// Store writes accepted originals to disk and removes asset pairs.
type Store struct {
	layout      Layout
	allowed     map[string]struct{}
	maxFileSize int64
}

func NewStore(layout Layout, allowedTypes []string, maxFileSize int64) *Store {
	allowed := lo.SliceToMap(allowedTypes, func(t string) (string, struct{}) {
		return mediaType(t), struct{}{}
	})
	return &Store{layout: layout, allowed: allowed, maxFileSize: maxFileSize}
}

func (s *Store) Layout() Layout { return s.layout }

func (s *Store) Accepts(contentType string) bool {
	_, ok := s.allowed[mediaType(contentType)]
	return ok
}

// Save checks the declared type and size, then writes the stream to
// <images>/<uuid><ext>. ext always names the declared format. Nothing is
// written when the type is rejected.
func (s *Store) Save(ctx context.Context, in Incoming) (*StoredAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mt := mediaType(in.ContentType)
	kind, known := kinds[mt]
	if !s.Accepts(mt) || !known {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, in.ContentType)
	}
	if in.Size == 0 {
		return nil, ErrEmptyFile
	}
	if in.Size > s.maxFileSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, in.Size, s.maxFileSize)
	}

	filename := uuid.New().String() + extensionFor(kind, filepath.Ext(in.Filename))
	dst := s.layout.ImagePath(filename)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrStorage, dst, err)
	}

	written, copyErr := io.Copy(f, NewMaxSizeReader(in.Reader, s.maxFileSize))
	closeErr := f.Close()
	if copyErr == nil && written == 0 {
		copyErr = ErrEmptyFile
	}
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(dst)
		switch {
		case errors.Is(copyErr, ErrPayloadTooLarge), errors.Is(copyErr, ErrEmptyFile):
			return nil, copyErr
		case copyErr != nil:
			return nil, fmt.Errorf("%w: write %s: %w", ErrStorage, dst, copyErr)
		default:
			return nil, fmt.Errorf("%w: close %s: %w", ErrStorage, dst, closeErr)
		}
	}

	return &StoredAsset{Filename: filename, Path: dst}, nil
}

// SaveFileHeader is Save for a parsed multipart part.
func (s *Store) SaveFileHeader(ctx context.Context, fh *multipart.FileHeader) (*StoredAsset, error) {
	if !s.Accepts(fh.Header.Get("Content-Type")) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, fh.Header.Get("Content-Type"))
	}
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open upload: %w", ErrStorage, err)
	}
	defer file.Close()

	return s.Save(ctx, Incoming{
		Reader:      file,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	})
}

// Remove deletes the original and its thumbnail. Missing files are fine,
// so calling it twice is harmless.
func (s *Store) Remove(filename string) error {
	if err := checkFilename(filename); err != nil {
		return fmt.Errorf("%w: %q", err, filename)
	}
	for _, p := range []string{s.layout.ImagePath(filename), s.layout.ThumbnailPath(filename)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: remove %s: %w", ErrStorage, p, err)
		}
	}
	return nil
}

// Discard is Remove for rollback paths where the caller already has an error.
func (s *Store) Discard(filename string) {
	if err := s.Remove(filename); err != nil {
		log.Printf("upload_discard_failed filename=%s error=%q", filename, err)
	}
}
