package gallery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"

	"gallery/internal/domain"
	"gallery/internal/domain/upload"
	"gallery/internal/pkg/sanitize"
	"gallery/internal/pkg/validator"
	"gallery/internal/repository"

	"github.com/samber/lo"
)

// Service coordinates image records with their files on disk.
//
// Files are written before the record and removed before the record on
// delete. On update the old pair is only removed once the new record is
// stored.
type Service struct {
	repo   Repository
	assets AssetStore
	thumbs ThumbnailGenerator
}

func NewService(repo Repository, assets AssetStore, thumbs ThumbnailGenerator) *Service {
	return &Service{repo: repo, assets: assets, thumbs: thumbs}
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, req CreateImageRequest, file *multipart.FileHeader) (*domain.Image, error) {
	req.normalize()
	if fields := validator.Validate(&req); fields != nil {
		return nil, domain.NewValidationError(fields)
	}
	if file == nil {
		return nil, ErrFileRequired
	}

	asset, err := s.storeAsset(ctx, file)
	if err != nil {
		return nil, err
	}

	img := &domain.Image{
		UserID:       actor.UserID,
		Title:        req.Title,
		Description:  req.Description,
		URL:          upload.ImageURL(asset.Filename),
		ThumbnailURL: upload.ThumbnailURL(asset.Filename),
		Tags:         req.Tags,
		Category:     req.Category,
		IsPublic:     lo.FromPtrOr(req.IsPublic, true),
	}
	if err := s.repo.Create(ctx, img); err != nil {
		s.assets.Discard(asset.Filename)
		return nil, fmt.Errorf("create image: %w", err)
	}

	log.Printf("image_created image_id=%d user_id=%d filename=%s", img.ID, img.UserID, asset.Filename)
	return s.reload(ctx, img), nil
}

func (s *Service) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Image, error) {
	img, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !img.VisibleTo(actor) {
		return nil, domain.ErrForbidden
	}
	return img, nil
}

// List returns images visible to actor. Admins see everything.
func (s *Service) List(ctx context.Context, actor domain.Actor, q ListQuery) (*ListResult, error) {
	if q.Category != "" {
		if fields := validator.Validate(struct {
			Category domain.Category `json:"category" validate:"oneof=equipment course creative demand other"`
		}{q.Category}); fields != nil {
			return nil, domain.NewValidationError(fields)
		}
	}

	page := max(q.Page, 1)
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)

	filter := domain.ImageFilter{
		Category: q.Category,
		OwnerID:  q.UserID,
		Offset:   (page - 1) * limit,
		Limit:    limit,
	}
	if len(q.Tags) > 0 {
		filter.Tags = sanitize.Tags(q.Tags)
	}
	if !actor.Elevated() {
		filter.ViewerID = actor.UserID
	}

	images, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	return &ListResult{
		Images: images,
		Pagination: Pagination{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}

// Update merges the provided fields into the record. When file is set the
// new pair is derived first and the old pair is removed after the record
// points at the new one.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id int64, req UpdateImageRequest, file *multipart.FileHeader) (*domain.Image, error) {
	img, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(img.UserID) {
		return nil, domain.ErrForbidden
	}

	req.normalize()
	if fields := req.validate(); fields != nil {
		return nil, domain.NewValidationError(fields)
	}

	var replaced *upload.StoredAsset
	if file != nil {
		if replaced, err = s.storeAsset(ctx, file); err != nil {
			return nil, err
		}
	}

	previousURL := img.URL
	req.apply(img)
	if replaced != nil {
		img.URL = upload.ImageURL(replaced.Filename)
		img.ThumbnailURL = upload.ThumbnailURL(replaced.Filename)
	}

	if err := s.repo.Update(ctx, img); err != nil {
		if replaced != nil {
			s.assets.Discard(replaced.Filename)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("update image %d: %w", id, err)
	}

	if replaced != nil {
		s.removeSuperseded(img.ID, previousURL)
	}
	return s.reload(ctx, img), nil
}

// Delete removes the files first. If that fails the record stays.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	img, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanManage(img.UserID) {
		return domain.ErrForbidden
	}

	filename, err := upload.FilenameFromURL(img.URL)
	if err != nil {
		log.Printf("image_delete_unmanaged_url image_id=%d url=%q", img.ID, img.URL)
	} else if err := s.assets.Remove(filename); err != nil {
		return fmt.Errorf("delete image %d files: %w", id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrImageNotFound
		}
		return fmt.Errorf("delete image %d: %w", id, err)
	}

	log.Printf("image_deleted image_id=%d user_id=%d by=%d", img.ID, img.UserID, actor.UserID)
	return nil
}

// storeAsset writes the original and derives its thumbnail. A failed
// thumbnail removes the original again.
func (s *Service) storeAsset(ctx context.Context, file *multipart.FileHeader) (*upload.StoredAsset, error) {
	asset, err := s.assets.SaveFileHeader(ctx, file)
	if err != nil {
		return nil, err
	}
	if _, err := s.thumbs.Generate(ctx, asset.Path); err != nil {
		s.assets.Discard(asset.Filename)
		return nil, err
	}
	return asset, nil
}

func (s *Service) removeSuperseded(imageID int64, previousURL string) {
	filename, err := upload.FilenameFromURL(previousURL)
	if err != nil {
		log.Printf("image_superseded_unmanaged_url image_id=%d url=%q", imageID, previousURL)
		return
	}
	if err := s.assets.Remove(filename); err != nil {
		// The sweep picks these up later.
		log.Printf("image_superseded_cleanup_failed image_id=%d filename=%s error=%q", imageID, filename, err)
	}
}

func (s *Service) load(ctx context.Context, id int64) (*domain.Image, error) {
	img, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("load image %d: %w", id, err)
	}
	return img, nil
}

// reload fetches the stored record with its owner summary. The written
// value is returned if that read fails.
func (s *Service) reload(ctx context.Context, img *domain.Image) *domain.Image {
	stored, err := s.repo.GetByID(ctx, img.ID)
	if err != nil {
		log.Printf("image_reload_failed image_id=%d error=%q", img.ID, err)
		return img
	}
	return stored
}
