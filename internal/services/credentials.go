package services

import (
	"errors"
	"time"

	"taskboard/backend/internal/config"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "taskboard-backend"

var ErrInvalidToken = errors.New("token is invalid or expired")

// CredentialService is the only component that touches password hashes
// or token signatures. It holds no persistent state.
type CredentialService interface {
	HashPassword(plain string) (string, error)
	VerifyPassword(hashed, plain string) bool
	IssueToken(userID uuid.UUID, role string) (string, error)
	VerifyToken(tokenStr string) (uuid.UUID, string, error)
}

type CredentialServiceImpl struct {
	secret   []byte
	tokenTTL time.Duration
	cost     int
}

func NewCredentialService(cfg config.AuthConfig) *CredentialServiceImpl {
	return &CredentialServiceImpl{
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: cfg.TokenTTL,
		cost:     cfg.BCryptCost,
	}
}

func (s *CredentialServiceImpl) HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *CredentialServiceImpl) VerifyPassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

func (s *CredentialServiceImpl) IssueToken(userID uuid.UUID, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"iss":     tokenIssuer,
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *CredentialServiceImpl) VerifyToken(tokenStr string) (uuid.UUID, string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", ErrInvalidToken
	}

	if iss, _ := claims["iss"].(string); iss != tokenIssuer {
		return uuid.Nil, "", ErrInvalidToken
	}

	// jwt.Parse already rejects expired tokens when exp is present, but
	// a token without exp must not pass either.
	if _, ok := claims["exp"].(float64); !ok {
		return uuid.Nil, "", ErrInvalidToken
	}

	userIDStr, _ := claims["user_id"].(string)
	userID, err := uuid.FromString(userIDStr)
	if err != nil {
		return uuid.Nil, "", ErrInvalidToken
	}

	role, _ := claims["role"].(string)
	return userID, role, nil
}
