package gallery

import (
	"context"
	"mime/multipart"

	"gallery/internal/domain"
	"gallery/internal/domain/upload"
)

// Repository is the slice of the image repository the service uses.
type Repository interface {
	Create(ctx context.Context, img *domain.Image) error
	GetByID(ctx context.Context, id int64) (*domain.Image, error)
	Update(ctx context.Context, img *domain.Image) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f domain.ImageFilter) ([]*domain.Image, int64, error)
}

// AssetStore writes originals and removes original/thumbnail pairs.
type AssetStore interface {
	SaveFileHeader(ctx context.Context, fh *multipart.FileHeader) (*upload.StoredAsset, error)
	Remove(filename string) error
	Discard(filename string)
}

type ThumbnailGenerator interface {
	Generate(ctx context.Context, srcPath string) (string, error)
}
