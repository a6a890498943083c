package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const adminRole = "admin"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNotAdmin     = errors.New("token lacks admin role")
)

// Admin identifies the caller of an admin endpoint.
type Admin struct {
	Subject string
}

var adminKey = &struct{}{}

func ContextWithAdmin(ctx context.Context, a Admin) context.Context {
	return context.WithValue(ctx, adminKey, a)
}

func AdminFromContext(ctx context.Context) (Admin, bool) {
	a, ok := ctx.Value(adminKey).(Admin)
	return a, ok
}

// IssueAdminToken signs an HS256 token granting admin access to subject.
func IssueAdminToken(secret, subject string, ttl time.Duration) (string, int64, error) {
	if secret == "" {
		return "", 0, errors.New("empty secret")
	}
	now := time.Now()
	exp := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": adminRole,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", 0, err
	}
	return s, exp.Unix(), nil
}

// ParseAdminToken verifies tokenString and returns its subject.
func ParseAdminToken(secret, tokenString string) (Admin, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Admin{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Admin{}, ErrInvalidToken
	}
	if role, _ := claims["role"].(string); role != adminRole {
		return Admin{}, ErrNotAdmin
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Admin{}, ErrInvalidToken
	}
	return Admin{Subject: sub}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
}
