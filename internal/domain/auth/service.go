package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"

	"gallery/internal/domain"
	"gallery/internal/domain/upload"
	"gallery/internal/pkg/validator"
	"gallery/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	users      UserRepository
	tokens     TokenIssuer
	avatars    AvatarStore
	bcryptCost int
}

func NewService(users UserRepository, tokens TokenIssuer, avatars AvatarStore, bcryptCost int) *Service {
	return &Service{users: users, tokens: tokens, avatars: avatars, bcryptCost: bcryptCost}
}

// Register creates a plain user account. Self-registration never grants
// designer or admin.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.normalize()
	if fields := validator.Validate(&req); fields != nil {
		return nil, domain.NewValidationError(fields)
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}
	if exists, err = s.users.ExistsByUsername(ctx, req.Username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hash, err := s.hash("password", req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Printf("user_registered user_id=%d", user.ID)
	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if fields := validator.Validate(&req); fields != nil {
		return nil, domain.NewValidationError(fields)
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := CheckPassword(req.Password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *Service) GetMe(ctx context.Context, userID int64) (*domain.User, error) {
	return s.load(ctx, userID)
}

// UpdateProfile changes username and bio and optionally replaces the avatar.
// The previous avatar file is removed once the new one is recorded.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest, avatar *multipart.FileHeader) (*domain.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	req.normalize()
	if fields := validator.Validate(&req); fields != nil {
		return nil, domain.NewValidationError(fields)
	}

	if req.Username != nil && *req.Username != user.Username {
		taken, err := s.users.ExistsByUsername(ctx, *req.Username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			return nil, ErrUsernameTaken
		}
		user.Username = *req.Username
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}

	previousAvatar := user.Avatar
	var stored *upload.StoredAsset
	if avatar != nil {
		if stored, err = s.avatars.SaveFileHeader(ctx, avatar); err != nil {
			return nil, err
		}
		user.Avatar = upload.ImageURL(stored.Filename)
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if stored != nil {
			s.avatars.Discard(stored.Filename)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	if stored != nil && previousAvatar != "" {
		if filename, err := upload.FilenameFromURL(previousAvatar); err == nil {
			if err := s.avatars.Remove(filename); err != nil {
				log.Printf("avatar_cleanup_failed user_id=%d filename=%s error=%q", user.ID, filename, err)
			}
		}
	}
	return user, nil
}

// ChangePassword hashes the new password once and stores it.
func (s *Service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	if fields := validator.Validate(&req); fields != nil {
		return domain.NewValidationError(fields)
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(req.CurrentPassword, user.PasswordHash); err != nil {
		return ErrWrongPassword
	}

	hash, err := s.hash("new_password", req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	log.Printf("password_changed user_id=%d", user.ID)
	return nil
}

func (s *Service) load(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	return user, nil
}

func (s *Service) hash(field, password string) (string, error) {
	hash, err := HashPassword(password, s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domain.NewValidationError(map[string]string{field: "max=72"})
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func (s *Service) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
