package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	SessionTokenTTL = 30 * 24 * time.Hour
	PendingTokenTTL = 5 * time.Minute
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// JWTService emite y valida tokens de sesion y tokens pendientes de 2FA.
type JWTService struct {
	secret     []byte
	sessionTTL time.Duration
	pendingTTL time.Duration
	issuer     string
	store      PendingTokenStore
	now        func() time.Time
}

// Claims es el payload firmado. Pending marca un token que solo sirve para completar 2FA.
type Claims struct {
	UserID  string `json:"id"`
	Pending bool   `json:"pending,omitempty"`
	jwt.RegisteredClaims
}

func NewJWTService(secret string) *JWTService {
	return NewJWTServiceWithStore(secret, SessionTokenTTL, PendingTokenTTL, NewMemoryPendingTokenStore())
}

func NewJWTServiceWithStore(secret string, sessionTTL, pendingTTL time.Duration, store PendingTokenStore) *JWTService {
	if sessionTTL <= 0 {
		sessionTTL = SessionTokenTTL
	}
	if pendingTTL <= 0 {
		pendingTTL = PendingTokenTTL
	}
	if store == nil {
		store = NewMemoryPendingTokenStore()
	}
	return &JWTService{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		pendingTTL: pendingTTL,
		issuer:     "pfm-backend",
		store:      store,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *JWTService) IssueSessionToken(userID string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(userID) == "" {
		return "", ErrTokenInvalid
	}
	return s.sign(Claims{UserID: userID}, s.sessionTTL)
}

// IssuePendingToken emite el token de 5 minutos para el segundo factor y registra su jti.
func (s *JWTService) IssuePendingToken(userID string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(userID) == "" {
		return "", ErrTokenInvalid
	}
	jti := uuid.NewString()
	claims := Claims{UserID: userID, Pending: true}
	claims.ID = jti
	signed, err := s.sign(claims, s.pendingTTL)
	if err != nil {
		return "", err
	}
	if err := s.store.Store(jti, userID, s.pendingTTL); err != nil {
		return "", err
	}
	return signed, nil
}

// Verify valida firma, algoritmo, expiracion y emisor. No distingue sesion de pendiente.
func (s *JWTService) Verify(token string) (Claims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(token) == "" {
		return Claims{}, ErrTokenInvalid
	}
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, ErrTokenExpired)
		}
		return Claims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.UserID) == "" || claims.Subject != claims.UserID || claims.Issuer != s.issuer {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}

// ConsumePending invalida el jti de un token pendiente; un segundo uso falla.
func (s *JWTService) ConsumePending(claims Claims) error {
	if !claims.Pending || claims.ID == "" {
		return ErrTokenInvalid
	}
	userID, ok, err := s.store.Consume(claims.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !ok || userID != claims.UserID {
		return ErrTokenInvalid
	}
	return nil
}

func (s *JWTService) sign(claims Claims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.Issuer = s.issuer
	claims.Subject = claims.UserID
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
