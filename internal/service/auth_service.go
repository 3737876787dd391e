package service

import (
	"errors"

	"likesio/config"
	"likesio/internal/auth"
	"likesio/internal/models"
	"likesio/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCreds   = errors.New("invalid email or password")
	ErrInvalidRefresh = errors.New("invalid refresh token")
)

// AuthService handles admin credential login. Customer sessions live with the external
// storefront session provider and never reach this API.
type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

func (s *AuthService) Login(email, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", "", ErrInvalidCreds
	}
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return nil, "", "", err
	}
	return u, access, refresh, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair. The user row is re-read
// on every redemption, so a deleted or demoted account stops minting access tokens as soon
// as its current one expires.
func (s *AuthService) Refresh(refreshToken string) (*models.User, string, string, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, "", "", ErrInvalidRefresh
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, "", "", ErrInvalidRefresh
	}
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return nil, "", "", err
	}
	return u, access, refresh, nil
}
