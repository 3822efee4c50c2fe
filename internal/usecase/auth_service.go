package usecase

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"brazadash/internal/domain"
)

type AuthService struct {
	JWTSecret string
	TTL       time.Duration
	Now       func() time.Time
}

func (s *AuthService) Issue(p domain.Principal) (string, error) {
	if p.UserID == "" {
		return "", domain.ErrValidation("user id required")
	}
	ttl := s.TTL
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}
	claims := jwt.MapClaims{
		"user_id": p.UserID,
		"role":    string(p.Role),
		"exp":     nowOr(s.Now).Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.JWTSecret))
}

func (s *AuthService) Verify(token string) (domain.Principal, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(s.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Principal{}, err
	}
	if !parsed.Valid {
		return domain.Principal{}, errors.New("invalid token")
	}
	m, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Principal{}, domain.ErrNotFound("claims")
	}
	uid, _ := m["user_id"].(string)
	role, _ := m["role"].(string)
	if uid == "" {
		return domain.Principal{}, errors.New("token missing user_id")
	}
	if role == "" {
		role = string(domain.RoleCustomer)
	}
	return domain.Principal{UserID: uid, Role: domain.Role(role)}, nil
}
