package repository

import (
	"context"
	"time"

	"gallery/internal/domain"
	"gallery/internal/domain/upload"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

type ImageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

type imageModel struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	UserID       int64     `gorm:"column:user_id;index;not null"`
	Title        string    `gorm:"column:title;size:100;not null"`
	Description  string    `gorm:"column:description;size:500"`
	URL          string    `gorm:"column:url;not null;index"`
	ThumbnailURL string    `gorm:"column:thumbnail_url;not null"`
	Category     string    `gorm:"column:category;size:16;index;not null"`
	IsPublic     bool      `gorm:"column:is_public;index;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;index"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (imageModel) TableName() string { return "images" }

type imageTagModel struct {
	ID      int64  `gorm:"column:id;primaryKey"`
	ImageID int64  `gorm:"column:image_id;not null;uniqueIndex:idx_image_tag"`
	Tag     string `gorm:"column:tag;size:64;not null;uniqueIndex:idx_image_tag;index"`
}

func (imageTagModel) TableName() string { return "image_tags" }

type ownerRow struct {
	ID       int64
	Username string
	Avatar   *string
}

func toImageModel(img *domain.Image) imageModel {
	return imageModel{
		ID:           img.ID,
		UserID:       img.UserID,
		Title:        img.Title,
		Description:  img.Description,
		URL:          img.URL,
		ThumbnailURL: img.ThumbnailURL,
		Category:     string(img.Category),
		IsPublic:     img.IsPublic,
		CreatedAt:    img.CreatedAt,
		UpdatedAt:    img.UpdatedAt,
	}
}

func toDomainImage(m imageModel) *domain.Image {
	return &domain.Image{
		ID:           m.ID,
		UserID:       m.UserID,
		Title:        m.Title,
		Description:  m.Description,
		URL:          m.URL,
		ThumbnailURL: m.ThumbnailURL,
		Tags:         []string{},
		Category:     domain.Category(m.Category),
		IsPublic:     m.IsPublic,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func tagRows(imageID int64, tags []string) []imageTagModel {
	return lo.Map(tags, func(tag string, _ int) imageTagModel {
		return imageTagModel{ImageID: imageID, Tag: tag}
	})
}

func (r *ImageRepository) Create(ctx context.Context, img *domain.Image) error {
	m := toImageModel(img)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		if len(img.Tags) == 0 {
			return nil
		}
		rows := tagRows(m.ID, img.Tags)
		return tx.Create(&rows).Error
	})
	if err != nil {
		return translate(err)
	}
	img.ID, img.CreatedAt, img.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *ImageRepository) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	var m imageModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	images := []*domain.Image{toDomainImage(m)}
	if err := r.attach(ctx, images); err != nil {
		return nil, err
	}
	return images[0], nil
}

// Update rewrites every mutable column and replaces the tag set.
func (r *ImageRepository) Update(ctx context.Context, img *domain.Image) error {
	m := toImageModel(img)
	m.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&imageModel{ID: img.ID}).Updates(map[string]any{
			"title":         m.Title,
			"description":   m.Description,
			"url":           m.URL,
			"thumbnail_url": m.ThumbnailURL,
			"category":      m.Category,
			"is_public":     m.IsPublic,
			"updated_at":    m.UpdatedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("image_id = ?", img.ID).Delete(&imageTagModel{}).Error; err != nil {
			return err
		}
		if len(img.Tags) == 0 {
			return nil
		}
		rows := tagRows(img.ID, img.Tags)
		return tx.Create(&rows).Error
	})
	if err != nil {
		return translate(err)
	}
	img.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *ImageRepository) Delete(ctx context.Context, id int64) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("image_id = ?", id).Delete(&imageTagModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&imageModel{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

// List returns one page of matching images, newest first, and the total match count.
func (r *ImageRepository) List(ctx context.Context, f domain.ImageFilter) ([]*domain.Image, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&imageModel{})
		if f.Category != "" {
			q = q.Where("category = ?", string(f.Category))
		}
		if len(f.Tags) > 0 {
			sub := r.db.Model(&imageTagModel{}).Select("image_id").Where("tag IN ?", f.Tags)
			q = q.Where("id IN (?)", sub)
		}
		if f.OwnerID != 0 {
			q = q.Where("user_id = ?", f.OwnerID)
		}
		if f.ViewerID != 0 {
			q = q.Where("is_public = ? OR user_id = ?", true, f.ViewerID)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []imageModel
	q := scoped().Order("created_at DESC").Order("id DESC").Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	images := lo.Map(rows, func(m imageModel, _ int) *domain.Image { return toDomainImage(m) })
	if err := r.attach(ctx, images); err != nil {
		return nil, 0, err
	}
	return images, total, nil
}

// ReferencesFile reports whether an image record's original is the stored file.
func (r *ImageRepository) ReferencesFile(ctx context.Context, filename string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&imageModel{}).Where("url = ?", upload.ImageURL(filename)).Count(&count).Error
	return count > 0, err
}

// attach loads tags and owner summaries for a page of images.
func (r *ImageRepository) attach(ctx context.Context, images []*domain.Image) error {
	if len(images) == 0 {
		return nil
	}
	byID := lo.KeyBy(images, func(img *domain.Image) int64 { return img.ID })

	var tags []imageTagModel
	if err := r.db.WithContext(ctx).
		Where("image_id IN ?", lo.Keys(byID)).
		Order("id ASC").
		Find(&tags).Error; err != nil {
		return err
	}
	for _, t := range tags {
		byID[t.ImageID].Tags = append(byID[t.ImageID].Tags, t.Tag)
	}

	ownerIDs := lo.Uniq(lo.Map(images, func(img *domain.Image, _ int) int64 { return img.UserID }))
	var owners []ownerRow
	if err := r.db.WithContext(ctx).
		Model(&userModel{}).
		Select("id", "username", "avatar").
		Where("id IN ?", ownerIDs).
		Scan(&owners).Error; err != nil {
		return err
	}
	ownerByID := lo.KeyBy(owners, func(o ownerRow) int64 { return o.ID })
	for _, img := range images {
		if o, ok := ownerByID[img.UserID]; ok {
			img.Owner = &domain.Owner{ID: o.ID, Username: o.Username, Avatar: lo.FromPtr(o.Avatar)}
		}
	}
	return nil
}
