package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/repository"
)

const (
	totpIssuer = "PFM Dashboard"
	qrSize     = 200
)

// TwoFactorService maneja el ciclo de vida TOTP: generar, activar, desactivar y el segundo paso del login.
type TwoFactorService struct {
	logger  *zap.Logger
	users   repository.UserRepository
	tokens  *JWTService
	limiter AttemptLimiter
	now     func() time.Time
}

func NewTwoFactorService(logger *zap.Logger, users repository.UserRepository, tokens *JWTService, limiter AttemptLimiter) *TwoFactorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewAttemptLimiter(5*time.Minute, 5)
	}
	return &TwoFactorService{
		logger:  logger,
		users:   users,
		tokens:  tokens,
		limiter: limiter,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Generate crea un secreto nuevo (pisando cualquier anterior, 2FA queda desactivado)
// y devuelve el QR como data URI PNG.
func (s *TwoFactorService) Generate(ctx context.Context, userID string) (string, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrQRGeneration, err)
	}
	secret := domain.TwoFactorSecret{Base32: key.Secret(), OTPAuthURL: key.URL()}
	if err := s.users.SetTwoFactorSecret(ctx, user.ID, secret); err != nil {
		return "", err
	}
	uri, err := qrDataURI(key)
	if err != nil {
		s.logger.Error("qr encode failed", zap.String("user_id", user.ID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrQRGeneration, err)
	}
	return uri, nil
}

// Verify activa 2FA si el codigo coincide con el secreto pendiente.
func (s *TwoFactorService) Verify(ctx context.Context, userID, code string) (domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if user.TwoFactorSecret == nil || user.TwoFactorSecret.Base32 == "" {
		return domain.User{}, ErrTwoFactorNotInitialized
	}
	if err := s.checkCode("setup:"+user.ID, user.TwoFactorSecret.Base32, code); err != nil {
		return domain.User{}, err
	}
	if err := s.users.EnableTwoFactor(ctx, user.ID); err != nil {
		return domain.User{}, err
	}
	user.IsTwoFactorEnabled = true
	s.logger.Info("2fa enabled", zap.String("user_id", user.ID))
	return user, nil
}

// Disable borra secreto y flag. Es idempotente.
func (s *TwoFactorService) Disable(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.users.DisableTwoFactor(ctx, user.ID); err != nil {
		return domain.User{}, err
	}
	user.IsTwoFactorEnabled = false
	user.TwoFactorSecret = nil
	s.logger.Info("2fa disabled", zap.String("user_id", user.ID))
	return user, nil
}

// VerifyLogin canjea un token pendiente mas un codigo TOTP por un token de sesion.
func (s *TwoFactorService) VerifyLogin(ctx context.Context, tempToken, code string) (domain.User, string, error) {
	claims, err := s.tokens.Verify(tempToken)
	if err != nil || !claims.Pending {
		return domain.User{}, "", ErrTokenInvalid
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, "", ErrTwoFactorNotEnabled
		}
		return domain.User{}, "", err
	}
	if !user.IsTwoFactorEnabled || user.TwoFactorSecret == nil {
		return domain.User{}, "", ErrTwoFactorNotEnabled
	}
	if err := s.checkCode("login:"+user.ID, user.TwoFactorSecret.Base32, code); err != nil {
		return domain.User{}, "", err
	}
	if err := s.tokens.ConsumePending(claims); err != nil {
		return domain.User{}, "", err
	}
	token, err := s.tokens.IssueSessionToken(user.ID)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, token, nil
}

// checkCode gasta un intento de la clave; un codigo valido devuelve el cupo entero.
func (s *TwoFactorService) checkCode(limitKey, secret, code string) error {
	if !s.limiter.Attempt(limitKey) {
		return ErrRateLimited
	}
	if !s.validCode(secret, code) {
		return ErrInvalidTOTP
	}
	s.limiter.Reset(limitKey)
	return nil
}

// validCode acepta el paso actual y uno a cada lado.
func (s *TwoFactorService) validCode(secret, code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, s.now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func (s *TwoFactorService) getUser(ctx context.Context, userID string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("two factor service not configured")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func qrDataURI(key *otp.Key) (string, error) {
	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
