package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/repository"
)

// UserService coordina registro, login y perfil.
type UserService struct {
	logger     *zap.Logger
	users      repository.UserRepository
	tokens     *JWTService
	bcryptCost int
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, tokens *JWTService, bcryptCost int) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		logger:     logger,
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginResult lleva el token de sesion o, si el usuario tiene 2FA, el token pendiente.
type LoginResult struct {
	User        domain.User
	Token       string
	Requires2FA bool
	TempToken   string
}

type ProfileUpdate struct {
	Name        *string
	Preferences *domain.NotificationPreferences
}

type ChangePasswordInput struct {
	OldPassword        string
	NewPassword        string
	ConfirmNewPassword string
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, string, error) {
	if s.users == nil || s.tokens == nil {
		return domain.User{}, "", errors.New("user service not configured")
	}

	name := strings.TrimSpace(input.Name)
	emailAddr := normalizeEmail(input.Email)
	if name == "" || emailAddr == "" || input.Password == "" {
		return domain.User{}, "", validationError("Please add all fields")
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.User{}, "", ErrUserExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, "", err
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return domain.User{}, "", err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        emailAddr,
		PasswordHash: string(hash),
		Budgets:      []domain.Budget{},
		Preferences:  domain.DefaultNotificationPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return domain.User{}, "", ErrUserExists
		}
		return domain.User{}, "", err
	}

	token, err := s.tokens.IssueSessionToken(user.ID)
	if err != nil {
		return domain.User{}, "", err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, token, nil
}

// Login valida credenciales. Con 2FA activo no emite sesion: devuelve un token pendiente.
func (s *UserService) Login(ctx context.Context, emailAddr, password string) (LoginResult, error) {
	if s.users == nil || s.tokens == nil {
		return LoginResult{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if user.PasswordHash == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.IsTwoFactorEnabled {
		temp, err := s.tokens.IssuePendingToken(user.ID)
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{User: user, Requires2FA: true, TempToken: temp}, nil
	}

	token, err := s.tokens.IssueSessionToken(user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: user, Token: token}, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// UpdateProfile aplica solo los campos presentes; un nombre vacio se ignora.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (domain.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if update.Name != nil {
		if name := strings.TrimSpace(*update.Name); name != "" {
			user.Name = name
		}
	}
	if update.Preferences != nil {
		user.Preferences = *update.Preferences
	}
	if err := s.users.UpdateProfile(ctx, user.ID, user.Name, user.Preferences); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) error {
	if input.OldPassword == "" || input.NewPassword == "" || input.ConfirmNewPassword == "" {
		return validationError("Please add all fields")
	}
	if input.NewPassword != input.ConfirmNewPassword {
		return ErrPasswordMismatch
	}
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
		return ErrIncorrectPassword
	}
	hash, err := s.hashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	s.logger.Info("password changed", zap.String("user_id", user.ID))
	return nil
}

// hashPassword rechaza como entrada invalida lo que bcrypt no puede hashear (mas de 72 bytes).
func (s *UserService) hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, validationError("Password must be at most 72 bytes")
	}
	return hash, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
