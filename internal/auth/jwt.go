package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"binkeyit_backend/internal/config"
	"binkeyit_backend/internal/models"
)

// TokenKind различает три семейства токенов. У каждого свой
// секрет и свой срок жизни - компрометация одного не дает
// возможности подделать другие.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
	TokenVerify  TokenKind = "verify"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims - полезная нагрузка всех токенов
type Claims struct {
	UserID uuid.UUID       `json:"user_id"`
	Role   models.UserRole `json:"role,omitempty"`
	Kind   TokenKind       `json:"kind"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secrets map[TokenKind][]byte
	ttls    map[TokenKind]time.Duration
	now     func() time.Time
}

func NewTokenManager(cfg *config.Config) *TokenManager {
	return &TokenManager{
		secrets: map[TokenKind][]byte{
			TokenAccess:  []byte(cfg.JWT.AccessSecret),
			TokenRefresh: []byte(cfg.JWT.RefreshSecret),
			TokenVerify:  []byte(cfg.JWT.VerifySecret),
		},
		ttls: map[TokenKind]time.Duration{
			TokenAccess:  cfg.JWT.AccessTTL.Std(),
			TokenRefresh: cfg.JWT.RefreshTTL.Std(),
			TokenVerify:  cfg.JWT.VerifyTTL.Std(),
		},
		now: time.Now,
	}
}

// Generate выпускает подписанный токен указанного вида.
func (m *TokenManager) Generate(kind TokenKind, userID uuid.UUID, role models.UserRole) (string, error) {
	secret, ok := m.secrets[kind]
	if !ok {
		return "", fmt.Errorf("unknown token kind %q", kind)
	}
	now := m.now()
	claims := Claims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti делает каждый выпуск уникальным, иначе две пары,
			// выпущенные в одну секунду, байт в байт совпадают
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttls[kind])),
		},
	}
	if kind == TokenAccess {
		claims.Role = role
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Parse валидирует подпись, срок жизни и вид токена.
func (m *TokenManager) Parse(kind TokenKind, tokenString string) (*Claims, error) {
	secret, ok := m.secrets[kind]
	if !ok {
		return nil, fmt.Errorf("unknown token kind %q", kind)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.Kind != kind {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
