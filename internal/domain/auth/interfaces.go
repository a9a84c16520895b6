package auth

import (
	"context"
	"mime/multipart"

	"gallery/internal/domain"
	"gallery/internal/domain/upload"
)

// UserRepository is the subset of the user store the auth service needs.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type TokenIssuer interface {
	GenerateToken(userID int64, role string) (string, error)
}

// AvatarStore keeps avatar originals next to gallery originals.
type AvatarStore interface {
	SaveFileHeader(ctx context.Context, fh *multipart.FileHeader) (*upload.StoredAsset, error)
	Remove(filename string) error
	Discard(filename string)
}
