package domain

import "time"

type Category string

const (
	CategoryEquipment Category = "equipment"
	CategoryCourse    Category = "course"
	CategoryCreative  Category = "creative"
	CategoryDemand    Category = "demand"
	CategoryOther     Category = "other"
)

// Image is a gallery record. URL and ThumbnailURL are always set together.
type Image struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Owner        *Owner    `json:"owner,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Tags         []string  `json:"tags"`
	Category     Category  `json:"category"`
	IsPublic     bool      `json:"is_public"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VisibleTo reports whether the caller may read the record.
func (i *Image) VisibleTo(a Actor) bool {
	return i.IsPublic || a.CanManage(i.UserID)
}

// ImageFilter narrows a listing. When ViewerID is set, private records of
// other owners are excluded.
type ImageFilter struct {
	Category Category
	Tags     []string
	OwnerID  int64
	ViewerID int64
	Offset   int
	Limit    int
}
