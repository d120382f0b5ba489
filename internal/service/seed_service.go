package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/JetsadaSomporn/docverify-api/internal/models"
	"github.com/JetsadaSomporn/docverify-api/internal/repository"
)

// SeedService guarantees the bootstrap admin account exists. This replaces
// the old rule where the first staff registration was silently promoted.
type SeedService interface {
	EnsureAdmin(ctx context.Context) error
}

type seedService struct {
	users    repository.UserRepository
	email    string
	password string
	logger   zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(users repository.UserRepository, email, password string, logger zerolog.Logger) SeedService {
	return &seedService{
		users:    users,
		email:    email,
		password: password,
		logger:   logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) EnsureAdmin(ctx context.Context) error {
	if s.email == "" {
		s.logger.Warn().Msg("no admin email configured, skipping admin seed")
		return nil
	}

	user, err := s.users.GetByEmail(ctx, s.email)
	switch {
	case err == nil:
		if user.HasRole(models.RoleAdmin) {
			return nil
		}
		user.AddRole(models.RoleAdmin)
		if err := s.users.Update(ctx, &user); err != nil {
			return err
		}
		s.logger.Info().Uint("user_id", user.ID).Msg("existing user promoted to admin")
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		admin := models.User{
			FirstName: "Administrator",
			Email:     s.email,
			Roles:     []string{models.RoleAdmin, models.RoleStaff},
		}
		if s.password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			hashString := string(hash)
			admin.PasswordHash = &hashString
		}
		if err := s.users.Create(ctx, &admin); err != nil {
			return err
		}
		s.logger.Info().Uint("user_id", admin.ID).Msg("admin account seeded")
		return nil
	default:
		return err
	}
}
